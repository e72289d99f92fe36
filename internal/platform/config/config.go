package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr        string
	Environment string

	// GoogleAudience is the OAuth client ID accepted as the `aud` claim
	// on Google ID tokens. Empty disables the audience check (dev only).
	GoogleAudience string

	// GoogleJWKSURL overrides the published Google key set location.
	GoogleJWKSURL string

	// UpstreamTimeout bounds every registry and authorization-network call.
	UpstreamTimeout time.Duration

	// RegistryRetries is the number of attempts for transient registry failures.
	RegistryRetries int

	// RetryBackoff is the base backoff between registry retries (doubled per attempt).
	RetryBackoff time.Duration

	// LifecyclePolicy selects the named key lifecycle policy applied by
	// explicit reconcile requests. See internal/lifecycle for valid names.
	LifecyclePolicy string

	// IdempotencyTTL controls how long mint responses are replayed for a
	// repeated Idempotency-Key.
	IdempotencyTTL time.Duration

	// DevRegistry runs against the in-process registry ledger instead of a
	// live chain endpoint.
	DevRegistry bool
}

const (
	defaultAddr            = ":8080"
	defaultUpstreamTimeout = 10 * time.Second
	defaultRegistryRetries = 3
	defaultRetryBackoff    = 200 * time.Millisecond
	defaultIdempotencyTTL  = 10 * time.Minute
	defaultPolicy          = "strip-all-but-newest"
)

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:            envString("RELAY_ADDR", defaultAddr),
		Environment:     envString("RELAY_ENV", "development"),
		GoogleAudience:  os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleJWKSURL:   os.Getenv("RELAY_GOOGLE_JWKS_URL"),
		UpstreamTimeout: envDuration("RELAY_UPSTREAM_TIMEOUT", defaultUpstreamTimeout),
		RegistryRetries: envInt("RELAY_REGISTRY_RETRIES", defaultRegistryRetries),
		RetryBackoff:    envDuration("RELAY_RETRY_BACKOFF", defaultRetryBackoff),
		LifecyclePolicy: envString("RELAY_LIFECYCLE_POLICY", defaultPolicy),
		IdempotencyTTL:  envDuration("RELAY_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		DevRegistry:     os.Getenv("RELAY_DEV_REGISTRY") == "true",
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
