// Package config reads application settings from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the application configuration.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret        string
	JWTExpirationDur time.Duration
}

var appConfig *Config

// Load reads the configuration from the environment. Missing variables fall
// back to local-development defaults; the JWT secret fallback is only
// suitable for development.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:             envOr("PORT", "8080"),
		DBHost:           envOr("DB_HOST", "localhost"),
		DBPort:           envOr("DB_PORT", "5432"),
		DBUser:           envOr("DB_USER", "spendwise"),
		DBPassword:       envOr("DB_PASSWORD", "spendwise"),
		DBName:           envOr("DB_NAME", "spendwise"),
		DBSSLMode:        envOr("DB_SSLMODE", "disable"),
		JWTSecret:        envOr("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTExpirationDur: envDuration("JWT_EXPIRES_IN", 24*time.Hour),
	}

	appConfig = cfg
	return cfg, nil
}

// Get returns the loaded configuration, loading it on first use.
func Get() *Config {
	if appConfig == nil {
		cfg, err := Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		appConfig = cfg
	}
	return appConfig
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}
