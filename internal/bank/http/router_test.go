package http_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	bankhttp "github.com/banca-aurora/aurora/internal/bank/http"
	"github.com/banca-aurora/aurora/internal/bank/identity"
	"github.com/banca-aurora/aurora/internal/bank/service"
	"github.com/banca-aurora/aurora/internal/bank/store"
	"github.com/banca-aurora/aurora/internal/bank/store/drivers/sqlite"
	"github.com/banca-aurora/aurora/pkg/jwtx"
)

const (
	testRealm   = "aurora"
	testIssuer  = "https://idp.test/realms/aurora"
	testAud     = "aurora-api"
	testKID     = "router-test-key"
	testUserID  = "9d7a44f0-2b1c-4c52-a9e3-6f1d2c8b0a11"
	testSubject = "sub-mario-rossi"
)

// fixture wires a live in-process stack: a fake provider, an in-memory
// store and the full router served over httptest.
type fixture struct {
	srv      *httptest.Server
	provider *httptest.Server
	signKey  *rsa.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider := newFakeProvider(t)
	t.Cleanup(provider.Close)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: testKID,
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}}}))

	st := newRouterTestStore(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := bankhttp.NewRouter(
		keys,
		jwtx.NewVerifierRS256(keys, testIssuer, []string{testAud}),
		"test",
		st,
		nil,
		logger,
	)
	router.Gateway = identity.NewGateway(identity.Config{
		Authority:    provider.URL + "/realms/" + testRealm,
		ClientID:     "aurora-backend",
		ClientSecret: "s3cret",
	})
	router.CustomerService = &service.CustomerService{Store: st}
	router.LoanService = &service.LoanService{Store: st, Decision: &service.DecisionService{}}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, provider: provider, signKey: key}
}

func newRouterTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

// newFakeProvider scripts the handful of provider endpoints the gateway
// talks to.
func newFakeProvider(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /realms/"+testRealm+"/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		switch r.PostForm.Get("grant_type") {
		case "password":
			if r.PostForm.Get("password") == "wrong" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid user credentials"}`))
				return
			}
			writeTokenJSON(w, "user-access-token")
		case "refresh_token":
			if r.PostForm.Get("refresh_token") == "stale" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token is not active"}`))
				return
			}
			writeTokenJSON(w, "refreshed-access-token")
		case "client_credentials":
			writeTokenJSON(w, "admin-access-token")
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	mux.HandleFunc("POST /realms/"+testRealm+"/protocol/openid-connect/logout", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("refresh_token") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /admin/realms/"+testRealm+"/users", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body.Username == "taken" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"errorMessage":"User exists with same username"}`))
			return
		}

		w.Header().Set("Location", r.Host+r.URL.Path+"/"+testUserID)
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("PUT /admin/realms/"+testRealm+"/users/{id}/reset-password", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return httptest.NewServer(mux)
}

func writeTokenJSON(w http.ResponseWriter, accessToken string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token":%q,"refresh_token":"refresh-opaque","expires_in":300,"refresh_expires_in":1800,"token_type":"Bearer"}`, accessToken)
}

// signToken mints an RS256 access token the router's verifier accepts.
func (f *fixture) signToken(t *testing.T, subject string) string {
	t.Helper()

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAud},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		PreferredUsername: "mario.rossi",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID

	signed, err := token.SignedString(f.signKey)
	require.NoError(t, err)
	return signed
}

// do issues a JSON request against the running server, with optional
// bearer token, and returns status plus response body.
func (f *fixture) do(t *testing.T, method, path, bearer string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, f.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestLoginRelaysProviderResponse(t *testing.T) {
	f := newFixture(t)

	t.Run("valid credentials relay the token body verbatim", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"username": "mario.rossi",
			"password": "correct horse",
		})
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `{
			"access_token": "user-access-token",
			"refresh_token": "refresh-opaque",
			"expires_in": 300,
			"refresh_expires_in": 1800,
			"token_type": "Bearer"
		}`, string(body))
	})

	t.Run("provider rejection keeps the provider status and body", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"username": "mario.rossi",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, status)
		require.JSONEq(t, `{"error":"invalid_grant","error_description":"Invalid user credentials"}`, string(body))
	})
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)

	t.Run("fresh tokens on success", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
			"refreshToken": "refresh-opaque",
		})
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, string(body), "refreshed-access-token")
	})

	t.Run("missing token is rejected locally", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{})
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("stale token relays the provider rejection", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
			"refreshToken": "stale",
		})
		require.Equal(t, http.StatusBadRequest, status)
		require.JSONEq(t, `{"error":"invalid_grant","error_description":"Token is not active"}`, string(body))
	})
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	t.Run("returns the provider-assigned user id", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
			"username":  "mario.rossi",
			"email":     "mario@example.com",
			"password":  "Sup3rSecret!",
			"firstName": "Mario",
			"lastName":  "Rossi",
		})
		require.Equal(t, http.StatusCreated, status)
		require.JSONEq(t, fmt.Sprintf(`{"userId":%q}`, testUserID), string(body))
	})

	t.Run("duplicate username yields 409 with step", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
			"username": "taken",
			"password": "Sup3rSecret!",
		})
		require.Equal(t, http.StatusConflict, status)

		var resp struct {
			Step    string `json:"step"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Equal(t, "create-user", resp.Step)
		require.Equal(t, "user already exists", resp.Message)
	})

	t.Run("blank credentials are rejected locally", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
			"username": "mario.rossi",
		})
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	t.Run("requires a valid access token", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, "/v1/auth/logout", "", map[string]string{
			"refreshToken": "refresh-opaque",
		})
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("revokes the session", func(t *testing.T) {
		token := f.signToken(t, testSubject)
		status, _ := f.do(t, http.MethodPost, "/v1/auth/logout", token, map[string]string{
			"refreshToken": "refresh-opaque",
		})
		require.Equal(t, http.StatusNoContent, status)
	})
}

func TestCustomerProfileLifecycle(t *testing.T) {
	f := newFixture(t)
	token := f.signToken(t, testSubject)

	t.Run("profile endpoints reject anonymous callers", func(t *testing.T) {
		status, _ := f.do(t, http.MethodGet, "/v1/customers/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("no profile yet", func(t *testing.T) {
		status, _ := f.do(t, http.MethodGet, "/v1/customers/me", token, nil)
		require.Equal(t, http.StatusNotFound, status)
	})

	var customerID string

	t.Run("create profile", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/customers", token, map[string]any{
			"firstName":     "Mario",
			"lastName":      "Rossi",
			"fiscalCode":    "RSSMRA80A01H501U",
			"incomeMonthly": 2500,
		})
		require.Equal(t, http.StatusCreated, status)

		var resp struct {
			ID         string `json:"customerId"`
			FiscalCode string `json:"fiscalCode"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.NotEmpty(t, resp.ID)
		require.Equal(t, "RSSMRA80A01H501U", resp.FiscalCode)
		customerID = resp.ID
	})

	t.Run("duplicate profile for the same subject", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, "/v1/customers", token, map[string]any{
			"firstName":     "Mario",
			"lastName":      "Rossi",
			"fiscalCode":    "RSSMRA80A01H501V",
			"incomeMonthly": 2500,
		})
		require.Equal(t, http.StatusConflict, status)
	})

	t.Run("profile is readable", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, "/v1/customers/me", token, nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			ID string `json:"customerId"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Equal(t, customerID, resp.ID)
	})

	t.Run("income update", func(t *testing.T) {
		status, body := f.do(t, http.MethodPut, "/v1/customers/me/income", token, map[string]any{
			"incomeMonthly": 3100.50,
		})
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			CustomerID    string  `json:"customerId"`
			IncomeMonthly float64 `json:"incomeMonthly"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Equal(t, customerID, resp.CustomerID)
		require.InDelta(t, 3100.50, resp.IncomeMonthly, 0.001)
	})

	t.Run("negative income is rejected", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPut, "/v1/customers/me/income", token, map[string]any{
			"incomeMonthly": -1,
		})
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestLoanApplicationFlow(t *testing.T) {
	f := newFixture(t)
	token := f.signToken(t, testSubject)

	status, body := f.do(t, http.MethodPost, "/v1/customers", token, map[string]any{
		"firstName":     "Anna",
		"lastName":      "Bianchi",
		"fiscalCode":    "BNCNNA85B41H501X",
		"incomeMonthly": 2500,
	})
	require.Equal(t, http.StatusCreated, status)

	var customer struct {
		ID string `json:"customerId"`
	}
	require.NoError(t, json.Unmarshal(body, &customer))

	var appID string

	t.Run("submit application", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/loan-applications", token, map[string]any{
			"customerId": customer.ID,
			"amount":     10000,
			"months":     12,
			"purpose":    "car",
		})
		require.Equal(t, http.StatusCreated, status)

		var resp struct {
			ApplicationID string `json:"applicationId"`
			Status        string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.NotEmpty(t, resp.ApplicationID)
		require.Equal(t, "SUBMITTED", resp.Status)
		appID = resp.ApplicationID
	})

	t.Run("unknown customer yields 404", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, "/v1/loan-applications", token, map[string]any{
			"customerId": "nope",
			"amount":     10000,
			"months":     12,
		})
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("decision approves an affordable application", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, "/v1/loan-applications/"+appID+"/decision", token, nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Status string   `json:"status"`
			Score  *int     `json:"score"`
			APR    *float64 `json:"apr"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Equal(t, "APPROVED", resp.Status)
		require.NotNil(t, resp.Score)
		require.Equal(t, 500, *resp.Score)
		require.NotNil(t, resp.APR)
	})

	t.Run("decision persists on the application", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, "/v1/loan-applications/"+appID, token, nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Equal(t, "APPROVED", resp.Status)
	})

	t.Run("list returns the page", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, "/v1/loan-applications?status=approved", token, nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Total int `json:"total"`
			Items []struct {
				ID string `json:"applicationId"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Equal(t, 1, resp.Total)
		require.Len(t, resp.Items, 1)
		require.Equal(t, appID, resp.Items[0].ID)
	})
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	t.Run("livez", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, "/livez", "", nil)
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, string(body), `"status":"ok"`)
	})

	t.Run("readyz reports database and verifier", func(t *testing.T) {
		status, body := f.do(t, http.MethodGet, "/readyz", "", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Status string `json:"status"`
			Checks struct {
				Database string `json:"database"`
				Verifier string `json:"verifier"`
			} `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Equal(t, "ok", resp.Status)
		require.Equal(t, "ok", resp.Checks.Database)
		require.Equal(t, "ok", resp.Checks.Verifier)
	})
}
