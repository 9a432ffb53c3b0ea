// Package identity delegates credential operations (login, register,
// logout, token refresh) to an external OpenID Connect provider. It
// sequences the required token-endpoint and admin-API calls, halting at
// the first failure and attributing every terminal error to the step
// that produced it.
package identity

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config carries the provider connection settings. Authority is the
// realm URL of the form <serverBase>/realms/<realm>; it is validated
// per registration attempt rather than at construction so a
// misconfigured deployment still serves the pass-through operations.
type Config struct {
	Authority    string
	ClientID     string
	ClientSecret string

	// HTTPClient overrides the outbound client. Defaults to a client
	// with a 15 second timeout.
	HTTPClient *http.Client
}

// Gateway is stateless between calls; independent operations may run
// concurrently without coordination.
type Gateway struct {
	authority    string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewGateway(cfg Config) *Gateway {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Gateway{
		authority:    strings.TrimRight(cfg.Authority, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   client,
	}
}

// RegisterRequest is the input for a registration attempt. The
// credential pair is transient and never persisted.
type RegisterRequest struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Login exchanges the credential pair for tokens via the password
// grant. The provider response is returned verbatim either way.
func (g *Gateway) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"username":      {username},
		"password":      {password},
	}
	return g.exchangeToken(ctx, g.tokenEndpoint(), form)
}

// Refresh exchanges a refresh token for fresh tokens. A blank token is
// rejected without contacting the provider.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrMissingRefreshToken
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"refresh_token": {refreshToken},
	}
	return g.exchangeToken(ctx, g.tokenEndpoint(), form)
}

// Logout revokes the session behind the given refresh token. A blank
// token is rejected without contacting the provider.
func (g *Gateway) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrMissingRefreshToken
	}

	form := url.Values{
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"refresh_token": {refreshToken},
	}
	return g.revokeSession(ctx, g.logoutEndpoint(), form)
}

// Register provisions a new user at the provider. The sequence is
// strictly linear and short-circuits on first failure:
//
//  1. validate the authority (no network activity on failure)
//  2. client-credentials grant for an admin token
//  3. create the user via the admin API
//  4. set the initial password
//
// A failure at step 4 is a partial failure: the user exists at the
// provider without a usable password, and the returned error carries
// the created user id for reconciliation.
func (g *Gateway) Register(ctx context.Context, req RegisterRequest) (string, error) {
	auth, err := ParseAuthority(g.authority)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
	}
	token, err := g.exchangeToken(ctx, auth.TokenURL(), form)
	if err != nil {
		return "", err
	}

	userID, err := g.createUser(ctx, auth, token.AccessToken, req)
	if err != nil {
		return "", err
	}

	if err := g.setPassword(ctx, auth, token.AccessToken, userID, req.Password); err != nil {
		return userID, err
	}

	return userID, nil
}

// JWKSURL returns the provider's signing key endpoint for inbound
// token verification.
func (g *Gateway) JWKSURL() string {
	return g.authority + "/protocol/openid-connect/certs"
}

func (g *Gateway) tokenEndpoint() string {
	return g.authority + "/protocol/openid-connect/token"
}

func (g *Gateway) logoutEndpoint() string {
	return g.authority + "/protocol/openid-connect/logout"
}
