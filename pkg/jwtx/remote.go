package jwtx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// RemoteKeySet keeps a KeySet in sync with a provider's JWKS endpoint
// (e.g. {authority}/protocol/openid-connect/certs). Fetches are lazy:
// the set is loaded on first use and re-fetched when a verification hits
// an unknown kid, rate-limited by MinRefreshInterval.
type RemoteKeySet struct {
	URL        string
	HTTPClient *http.Client

	// MinRefreshInterval throttles refreshes triggered by unknown kids so a
	// flood of bad tokens can't hammer the provider. Default 1 minute.
	MinRefreshInterval time.Duration

	keys *KeySet

	mu        sync.Mutex
	lastFetch time.Time
}

// NewRemoteKeySet builds a RemoteKeySet for the given JWKS URL.
func NewRemoteKeySet(url string, client *http.Client) *RemoteKeySet {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteKeySet{
		URL:                url,
		HTTPClient:         client,
		MinRefreshInterval: time.Minute,
		keys:               NewKeySet(),
	}
}

// KeySet exposes the underlying set, e.g. for readiness checks.
func (r *RemoteKeySet) KeySet() *KeySet { return r.keys }

// Load fetches the JWKS once, typically at startup so the service can fail
// fast on a misconfigured JWKS URL.
func (r *RemoteKeySet) Load(ctx context.Context) error {
	return r.fetch(ctx)
}

// Verifier returns an RS256 verifier backed by this remote set, refreshing
// keys on unknown kid.
func (r *RemoteKeySet) Verifier(issuer string, aud []string) Verifier {
	v := NewVerifierRS256(r.keys, issuer, aud)
	v.refresh = func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.refreshThrottled(ctx)
	}
	return v
}

func (r *RemoteKeySet) refreshThrottled(ctx context.Context) error {
	r.mu.Lock()
	if time.Since(r.lastFetch) < r.MinRefreshInterval {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	return r.fetch(ctx)
}

func (r *RemoteKeySet) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return fmt.Errorf("jwtx: build jwks request: %w", err)
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("jwtx: fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwtx: jwks endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("jwtx: read jwks body: %w", err)
	}

	var jwks JWKS
	if err := json.Unmarshal(body, &jwks); err != nil {
		return fmt.Errorf("jwtx: decode jwks: %w", err)
	}

	if err := r.keys.ResetFromJWKS(jwks); err != nil {
		return err
	}

	r.mu.Lock()
	r.lastFetch = time.Now()
	r.mu.Unlock()

	return nil
}
