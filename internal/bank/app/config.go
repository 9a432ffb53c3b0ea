package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Authority    string // Required: provider realm URL, <serverBase>/realms/<realm>
	ClientID     string // Required: confidential client id registered at the provider
	ClientSecret string // Required: client secret for the confidential client

	Issuer   string   // Optional: expected issuer claim on inbound tokens (default: Authority)
	Audience []string // Optional: accepted audience claims (default: none enforced)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./bank.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	JWKSRefreshInterval time.Duration // Background signing-key refresh interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Authority:           os.Getenv("IDP_AUTHORITY"),
		ClientID:            os.Getenv("IDP_CLIENT_ID"),
		ClientSecret:        os.Getenv("IDP_CLIENT_SECRET"),
		Issuer:              os.Getenv("IDP_ISSUER"),
		DatabaseFile:        getEnvOrDefault("BANK_DATABASE_FILE", "bank.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		JWKSRefreshInterval: getEnvDurationOrDefault("JWKS_REFRESH_INTERVAL", 1*time.Hour),
	}

	// Comma-separated audiences; empty means audience is not enforced.
	if aud := os.Getenv("IDP_AUDIENCE"); aud != "" {
		for _, a := range strings.Split(aud, ",") {
			if a = strings.TrimSpace(a); a != "" {
				cfg.Audience = append(cfg.Audience, a)
			}
		}
	}

	// Tokens minted by the realm carry the realm URL as issuer.
	if cfg.Issuer == "" {
		cfg.Issuer = strings.TrimRight(cfg.Authority, "/")
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are treated as seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
