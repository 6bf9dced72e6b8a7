package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
}

func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "save_pesa.db"
	}

	ttl := 7 * 24 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		ttl = parsed
	}

	return &Config{
		Addr:      ":" + port,
		DBPath:    dbPath,
		JWTSecret: secret,
		TokenTTL:  ttl,
	}, nil
}
