package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"songvault/internal/cdn"
	"songvault/internal/logging"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL      string
	DBConnectTimeout time.Duration
	Addr             string
	AllowedOrigins   []string
	JWTSecret        string
	JWTIssuer        string
	JWTTTL           time.Duration
	CDN              cdn.Config
	Logging          logging.Config
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET env var is required")
	}

	ttl, err := time.ParseDuration(envOrDefault("JWT_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse JWT_TTL: %w", err)
	}

	connectTimeout, err := time.ParseDuration(envOrDefault("DB_CONNECT_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_CONNECT_TIMEOUT: %w", err)
	}

	useSSL, err := strconv.ParseBool(envOrDefault("S3_USE_SSL", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse S3_USE_SSL: %w", err)
	}

	return Config{
		DatabaseURL:      dsn,
		DBConnectTimeout: connectTimeout,
		Addr:             fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigins:   parseAllowedOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		JWTSecret:        secret,
		JWTIssuer:        envOrDefault("JWT_ISSUER", "songvault"),
		JWTTTL:           ttl,
		CDN: cdn.Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    os.Getenv("S3_REGION"),
			Bucket:    envOrDefault("S3_BUCKET", "covers"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			UseSSL:    useSSL,
			BaseURL:   os.Getenv("CDN_BASE_URL"),
		},
		Logging: logging.Config{
			Level:  envOrDefault("LOG_LEVEL", "info"),
			Format: envOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var origins []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
