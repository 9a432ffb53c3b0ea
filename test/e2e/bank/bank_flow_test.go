package bank_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCredentialDelegationFlow covers the full delegated credential
// lifecycle against a real provider: register, login, refresh, logout.
func TestCredentialDelegationFlow(t *testing.T) {
	baseURL := setupStack(t)

	tokens := registerAndLogin(t, baseURL, "mario.rossi", "Sup3rSecret!")

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, baseURL+"/v1/auth/register", "", map[string]string{
			"username": "mario.rossi",
			"password": "AnotherSecret!",
		})
		require.Equal(t, http.StatusConflict, status)

		var resp struct {
			Step string `json:"step"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Equal(t, "create-user", resp.Step)
	})

	t.Run("wrong password relays the provider rejection", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, baseURL+"/v1/auth/login", "", map[string]string{
			"username": "mario.rossi",
			"password": "not-the-password",
		})
		require.Equal(t, http.StatusUnauthorized, status)
		require.Contains(t, string(body), "invalid_grant")
	})

	t.Run("refresh rotates the token pair", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, baseURL+"/v1/auth/refresh", "", map[string]string{
			"refreshToken": tokens.RefreshToken,
		})
		require.Equal(t, http.StatusOK, status)

		var refreshed tokenPair
		require.NoError(t, json.Unmarshal(body, &refreshed))
		require.NotEmpty(t, refreshed.AccessToken)
		require.NotEmpty(t, refreshed.RefreshToken)

		tokens = refreshed
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, baseURL+"/v1/auth/logout", tokens.AccessToken, map[string]string{
			"refreshToken": tokens.RefreshToken,
		})
		require.Equal(t, http.StatusNoContent, status)

		// The revoked refresh token must no longer be exchangeable.
		status, body := doJSON(t, http.MethodPost, baseURL+"/v1/auth/refresh", "", map[string]string{
			"refreshToken": tokens.RefreshToken,
		})
		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, string(body), "invalid_grant")
	})
}

// TestCustomerAndLoanFlow exercises the local banking surface with a
// provider-issued access token.
func TestCustomerAndLoanFlow(t *testing.T) {
	baseURL := setupStack(t)

	tokens := registerAndLogin(t, baseURL, "anna.bianchi", "Sup3rSecret!")

	status, _ := doJSON(t, http.MethodGet, baseURL+"/v1/customers/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, status, "fresh user has no profile")

	status, body := doJSON(t, http.MethodPost, baseURL+"/v1/customers", tokens.AccessToken, map[string]any{
		"firstName":     "Anna",
		"lastName":      "Bianchi",
		"fiscalCode":    "BNCNNA85B41H501X",
		"incomeMonthly": 2500,
	})
	require.Equal(t, http.StatusCreated, status, "profile create: %s", body)

	var customer struct {
		ID string `json:"customerId"`
	}
	require.NoError(t, json.Unmarshal(body, &customer))

	status, body = doJSON(t, http.MethodPost, baseURL+"/v1/loan-applications", tokens.AccessToken, map[string]any{
		"customerId": customer.ID,
		"amount":     10000,
		"months":     12,
		"purpose":    "car",
	})
	require.Equal(t, http.StatusCreated, status, "loan create: %s", body)

	var app struct {
		ApplicationID string `json:"applicationId"`
		Status        string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &app))
	require.Equal(t, "SUBMITTED", app.Status)

	status, body = doJSON(t, http.MethodPost, baseURL+"/v1/loan-applications/"+app.ApplicationID+"/decision", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, "decision: %s", body)

	var decision struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &decision))
	require.Equal(t, "APPROVED", decision.Status)

	t.Run("anonymous access is rejected", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodGet, baseURL+"/v1/customers/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, status)

		status, _ = doJSON(t, http.MethodGet, baseURL+"/v1/loan-applications", "garbage-token", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

// TestHealthProbes checks the probes against the running stack.
func TestHealthProbes(t *testing.T) {
	baseURL := setupStack(t)

	status, body := doJSON(t, http.MethodGet, baseURL+"/livez", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), `"status":"ok"`)

	status, body = doJSON(t, http.MethodGet, baseURL+"/readyz", "", nil)
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
}
