// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host   string
	Port   string
	Env    string // "development", "production", "testing"
	AppURL string // public web app URL, used for auth redirects

	// PostgreSQL connection
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxConns     int
	DBQueryTimeout time.Duration

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Managed auth service
	AuthURL     string
	AuthAnonKey string

	// Keys the digest of access tokens cached in Valkey
	SessionSecret string

	// Map SDK, handed to clients as-is
	MapToken string
	MapStyle string

	// S3-compatible object storage for uploaded images (optional)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Background view counter
	ViewCountWorkers int
	ViewCountQueue   int

	// Write requests allowed per contributor per minute
	RateLimitWrites int
}

const defaultSessionSecret = "dev-session-secret"

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a numeric value cannot be parsed.
func Load() (*Config, error) {
	cfg := &Config{
		Host:   envOrDefault("APP_HOST", "0.0.0.0"),
		Port:   envOrDefault("APP_PORT", "8080"),
		Env:    envOrDefault("APP_ENV", "development"),
		AppURL: envOrDefault("APP_URL", "http://localhost:3000"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "unseen"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "unseen"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AuthURL:     os.Getenv("AUTH_URL"),
		AuthAnonKey: os.Getenv("AUTH_ANON_KEY"),

		SessionSecret: envOrDefault("SESSION_SECRET", defaultSessionSecret),

		MapToken: os.Getenv("MAP_TOKEN"),
		MapStyle: envOrDefault("MAP_STYLE", "mapbox://styles/mapbox/streets-v12"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "ap-southeast-3"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "unseen-media"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	var err error
	if cfg.DBMaxConns, err = envInt("POSTGRES_MAX_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DBQueryTimeout, err = envDuration("DB_QUERY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ViewCountWorkers, err = envInt("VIEWCOUNT_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.ViewCountQueue, err = envInt("VIEWCOUNT_QUEUE", 256); err != nil {
		return nil, err
	}
	if cfg.RateLimitWrites, err = envInt("RATE_LIMIT_WRITES", 30); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.AuthURL == "" || cfg.AuthAnonKey == "" {
			return nil, fmt.Errorf("AUTH_URL and AUTH_ANON_KEY must be set in production")
		}
		if cfg.SessionSecret == defaultSessionSecret {
			return nil, fmt.Errorf("SESSION_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuthCallbackURL is where the auth service sends users after social login.
func (c *Config) AuthCallbackURL() string {
	return c.AppURL + "/auth/callback"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
