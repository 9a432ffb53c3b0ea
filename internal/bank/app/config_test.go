package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("IDP_AUTHORITY", "https://idp.example.com/realms/aurora")

	cfg := LoadConfig()

	require.Equal(t, "bank.db", cfg.DatabaseFile)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, time.Hour, cfg.JWKSRefreshInterval)
	require.Empty(t, cfg.Audience)
}

func TestLoadConfigIssuerFallsBackToAuthority(t *testing.T) {
	t.Setenv("IDP_AUTHORITY", "https://idp.example.com/realms/aurora/")

	cfg := LoadConfig()
	require.Equal(t, "https://idp.example.com/realms/aurora", cfg.Issuer)

	t.Setenv("IDP_ISSUER", "https://other.example.com/realms/aurora")
	cfg = LoadConfig()
	require.Equal(t, "https://other.example.com/realms/aurora", cfg.Issuer)
}

func TestLoadConfigAudienceList(t *testing.T) {
	t.Setenv("IDP_AUDIENCE", "aurora-api, account ,")

	cfg := LoadConfig()
	require.Equal(t, []string{"aurora-api", "account"}, cfg.Audience)
}

func TestLoadConfigDurationFormats(t *testing.T) {
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "30s")
	t.Setenv("JWKS_REFRESH_INTERVAL", "90")

	cfg := LoadConfig()
	require.Equal(t, 30*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, 90*time.Second, cfg.JWKSRefreshInterval)
}
