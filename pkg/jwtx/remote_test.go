package jwtx

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func rsaJWK(t *testing.T, kid string, pub *rsa.PublicKey) JWK {
	t.Helper()
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestRemoteKeySetVerify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(mustJSON(t, JWKS{Keys: []JWK{rsaJWK(t, "key-1", &key.PublicKey)}}))
	}))
	defer srv.Close()

	remote := NewRemoteKeySet(srv.URL, srv.Client())
	require.NoError(t, remote.Load(t.Context()))
	require.True(t, remote.KeySet().IsReady())
	require.Equal(t, int32(1), fetches.Load())

	verifier := remote.Verifier("http://idp/realms/bank", []string{"bank-api"})

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "http://idp/realms/bank",
			Subject:   "3f7c9e1a-user",
			Audience:  jwt.ClaimStrings{"bank-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scope:             "openid profile",
		PreferredUsername: "alice",
	}

	got, err := verifier.Verify(signToken(t, key, "key-1", claims))
	require.NoError(t, err)
	require.Equal(t, "3f7c9e1a-user", got.Subject)
	require.Equal(t, "alice", got.PreferredUsername)
	require.Equal(t, []string{"openid", "profile"}, got.Scopes())
}

func TestRemoteKeySetRejectsWrongIssuerAndAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(mustJSON(t, JWKS{Keys: []JWK{rsaJWK(t, "key-1", &key.PublicKey)}}))
	}))
	defer srv.Close()

	remote := NewRemoteKeySet(srv.URL, srv.Client())
	require.NoError(t, remote.Load(t.Context()))

	verifier := remote.Verifier("http://idp/realms/bank", []string{"bank-api"})

	base := jwt.RegisteredClaims{
		Subject:   "user",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	t.Run("wrong issuer", func(t *testing.T) {
		c := Claims{RegisteredClaims: base}
		c.Issuer = "http://rogue/realms/bank"
		c.Audience = jwt.ClaimStrings{"bank-api"}
		_, err := verifier.Verify(signToken(t, key, "key-1", c))
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := Claims{RegisteredClaims: base}
		c.Issuer = "http://idp/realms/bank"
		c.Audience = jwt.ClaimStrings{"someone-else"}
		_, err := verifier.Verify(signToken(t, key, "key-1", c))
		require.ErrorIs(t, err, ErrAudience)
	})
}

func TestRemoteKeySetRefreshesOnUnknownKid(t *testing.T) {
	oldKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	newKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	// First fetch serves the old key only; later fetches include the
	// rotated key.
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := fetches.Add(1)
		keys := []JWK{rsaJWK(t, "old", &oldKey.PublicKey)}
		if n > 1 {
			keys = append(keys, rsaJWK(t, "new", &newKey.PublicKey))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(mustJSON(t, JWKS{Keys: keys}))
	}))
	defer srv.Close()

	remote := NewRemoteKeySet(srv.URL, srv.Client())
	remote.MinRefreshInterval = 0 // no throttling in tests
	require.NoError(t, remote.Load(t.Context()))

	verifier := remote.Verifier("", nil)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	got, err := verifier.Verify(signToken(t, newKey, "new", claims))
	require.NoError(t, err)
	require.Equal(t, "user", got.Subject)
	require.Equal(t, int32(2), fetches.Load())
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
