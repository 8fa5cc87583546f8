package config

import (
	"fmt"
	"os"
	"time"
)

// JWTConfig holds the signing secret and lifetime for API bearer tokens.
// Tokens are minted by the token CLI subcommand and validated by the server;
// both sides read the same environment.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// JWTFromEnv reads JWT_SECRET (required) and JWT_TTL (a Go duration string,
// default 24h).
func JWTFromEnv() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
		}
		ttl = parsed
	}
	if ttl < time.Minute {
		return nil, fmt.Errorf("JWT_TTL must be at least one minute, got %s", ttl)
	}

	return &JWTConfig{Secret: secret, TTL: ttl}, nil
}
