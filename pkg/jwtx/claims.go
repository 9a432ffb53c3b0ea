package jwtx

import (
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims we care about from the identity
// provider. Provider-specific extras stay untouched; we only pull the
// fields needed for authentication and profile lookups.
type Claims struct {
	jwt.RegisteredClaims

	// Scope is the space-delimited scope string as issued by the provider.
	Scope string `json:"scope,omitempty"`

	// PreferredUsername is the login username claim.
	PreferredUsername string `json:"preferred_username,omitempty"`

	// Email of the authenticated user, if the provider released it.
	Email string `json:"email,omitempty"`
}

// Scopes splits the scope claim into individual scope values.
func (c *Claims) Scopes() []string {
	s := strings.TrimSpace(c.Scope)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before nbf, allowing a small grace period for clock skew.
func (c *Claims) ValidateExpiry(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
