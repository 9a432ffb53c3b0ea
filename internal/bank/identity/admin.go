package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// provisioningRequest is the admin API payload for creating a user.
// The provider assigns the identity; accounts are created enabled with
// the email pre-verified since registration already proved ownership of
// the credentials being delegated.
type provisioningRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Enabled       bool   `json:"enabled"`
	EmailVerified bool   `json:"emailVerified"`
}

type passwordPayload struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// createUser creates the user via the admin API and returns the new
// user id taken from the final segment of the Location header.
func (g *Gateway) createUser(ctx context.Context, auth Authority, adminToken string, req RegisterRequest) (string, error) {
	payload := provisioningRequest{
		Username:      req.Username,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Enabled:       true,
		EmailVerified: true,
	}

	resp, body, err := g.doAdminJSON(ctx, http.MethodPost, auth.UsersURL(), adminToken, payload)
	if err != nil {
		return "", &Error{Kind: KindTransport, Step: StepCreateUser, Err: err}
	}

	if resp.StatusCode == http.StatusConflict {
		return "", &Error{Kind: KindDuplicateUser, Step: StepCreateUser, Status: resp.StatusCode, Body: body}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Kind: KindProvider, Step: StepCreateUser, Status: resp.StatusCode, Body: body}
	}

	location := resp.Header.Get("Location")
	segments := strings.Split(location, "/")
	userID := segments[len(segments)-1]
	if strings.TrimSpace(userID) == "" {
		return "", &Error{Kind: KindProtocol, Step: StepLocationMissing, Status: resp.StatusCode, Body: body}
	}

	return userID, nil
}

// setPassword sets the initial password on a freshly created user. Any
// failure after this point leaves the provider holding a user without a
// usable password, so the error always carries the user id. No rollback
// is attempted; reconciliation is an operator decision.
func (g *Gateway) setPassword(ctx context.Context, auth Authority, adminToken, userID, password string) error {
	payload := passwordPayload{Type: "password", Value: password, Temporary: false}

	resp, body, err := g.doAdminJSON(ctx, http.MethodPut, auth.ResetPasswordURL(userID), adminToken, payload)
	if err != nil {
		return &Error{Kind: KindPartialFailure, Step: StepSetPassword, UserID: userID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindPartialFailure, Step: StepSetPassword, Status: resp.StatusCode, Body: body, UserID: userID}
	}

	return nil
}

func (g *Gateway) doAdminJSON(ctx context.Context, method, endpoint, adminToken string, payload any) (*http.Response, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}
