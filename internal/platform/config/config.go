package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	TokenTTL      time.Duration
	ResetInterval time.Duration
}

// Defaults, overridable via environment.
var (
	TokenTTL      = 30 * time.Minute
	ResetInterval = 24 * time.Hour
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SUBGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	tokenTTL := TokenTTL
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			tokenTTL = duration
		}
	}

	resetInterval := ResetInterval
	if v := os.Getenv("USAGE_RESET_INTERVAL"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			resetInterval = duration
		}
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      tokenTTL,
		ResetInterval: resetInterval,
	}
}
