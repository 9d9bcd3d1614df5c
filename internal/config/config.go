package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the checker's domain knobs. The event type and threshold come
// from the Kofi minting manager's staking programme; the page limit is the
// upstream API's cap.
const (
	DefaultEndpoint  = "https://api.mainnet.aptoslabs.com/v1/graphql"
	DefaultEventType = "0x2cc52445acc4c5e5817a0ac475976fbef966fedb6e30e7db792e10619c76181f::minting_manager::MintEvent"
	DefaultThreshold = 100_000_000
	DefaultLimit     = 100
	DefaultDelay     = 100 * time.Millisecond
	DefaultCacheDir  = "data/cache"
)

// Config holds all environment-derived configuration. CLI flags override
// the corresponding fields where both exist.
type Config struct {
	// Upstream GraphQL API
	Endpoint  string
	AuthToken string

	// Optional backends
	RedisURL    string
	PostgresURL string

	// Verdict publishing
	VerdictsTopic string

	// HTTP API (serve mode)
	HTTPAddr string
	APIToken string

	// Logging
	LogLevel string
}

// Load loads configuration from the environment, reading a .env file first
// when one exists. Nothing is required: the checker runs without Redis,
// Postgres, or an auth token, just with fewer capabilities.
func Load() *Config {
	// Best effort; absence of .env is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		Endpoint:      DefaultEndpoint,
		VerdictsTopic: "staker-verdicts",
		HTTPAddr:      ":8080",
		LogLevel:      "info",
	}

	if v := os.Getenv("APTOS_GRAPHQL_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	cfg.AuthToken = os.Getenv("APTOS_AUTH_TOKEN")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.PostgresURL = os.Getenv("POSTGRES_URL")

	if v := os.Getenv("VERDICTS_TOPIC"); v != "" {
		cfg.VerdictsTopic = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.APIToken = os.Getenv("API_TOKEN")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}
