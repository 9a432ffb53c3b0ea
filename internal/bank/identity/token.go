package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TokenResponse is the provider's answer to a successful grant exchange.
// The gateway treats it as opaque beyond field extraction; Raw preserves
// the provider body verbatim so callers can relay it unchanged.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in,omitempty"`
	TokenType        string `json:"token_type"`

	Raw []byte `json:"-"`
}

// exchangeToken posts a form-encoded grant to the token endpoint and
// parses the response. A single call yields a single attempt; no retry.
func (g *Gateway) exchangeToken(ctx context.Context, endpoint string, form url.Values) (*TokenResponse, error) {
	status, body, err := g.postForm(ctx, endpoint, form)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Step: StepToken, Err: err}
	}

	if status < 200 || status > 299 {
		return nil, &Error{Kind: KindProvider, Step: StepToken, Status: status, Body: body}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, &Error{Kind: KindProtocol, Step: StepTokenParse, Status: status, Body: body, Err: err}
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, &Error{Kind: KindProtocol, Step: StepTokenEmpty, Status: status, Body: body}
	}

	token.Raw = body
	return &token, nil
}

// revokeSession posts a form-encoded logout request. The provider
// returns no useful body on success.
func (g *Gateway) revokeSession(ctx context.Context, endpoint string, form url.Values) error {
	status, body, err := g.postForm(ctx, endpoint, form)
	if err != nil {
		return &Error{Kind: KindTransport, Step: StepLogout, Err: err}
	}
	if status < 200 || status > 299 {
		return &Error{Kind: KindProvider, Step: StepLogout, Status: status, Body: body}
	}
	return nil
}

func (g *Gateway) postForm(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}
