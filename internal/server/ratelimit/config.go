package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the limiter's runtime configuration.
type Config struct {
	Enabled       bool
	Default       Rule
	Rules         Rules
	SweepInterval time.Duration
	Exempt        map[string]bool
	Blocked       map[string]bool
}

// FromEnv builds the configuration from the environment:
//
//	RATE_LIMIT_ENABLED             on/off switch (default true)
//	RATE_LIMIT_DEFAULT_PER_MINUTE  budget for routes no rule covers (default 1000)
//	RATE_LIMIT_SWEEP_INTERVAL      idle bucket sweep cadence (default 5m)
//	RATE_LIMIT_EXEMPT              comma-separated client IPs never throttled
//	RATE_LIMIT_BLOCKED             comma-separated client IPs always refused
//
// Route budgets themselves come from DefaultRules.
func FromEnv() *Config {
	if !envBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	perMinute := envInt("RATE_LIMIT_DEFAULT_PER_MINUTE", 1000)
	return &Config{
		Enabled: true,
		Default: Rule{
			Tier:      "default",
			PerWindow: perMinute,
			Window:    time.Minute,
		},
		Rules:         DefaultRules(),
		SweepInterval: envDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		Exempt:        envClientSet("RATE_LIMIT_EXEMPT"),
		Blocked:       envClientSet("RATE_LIMIT_BLOCKED"),
	}
}

func envBool(key string, fallback bool) bool {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envClientSet(key string) map[string]bool {
	set := make(map[string]bool)
	for _, entry := range strings.Split(os.Getenv(key), ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			set[entry] = true
		}
	}
	return set
}
