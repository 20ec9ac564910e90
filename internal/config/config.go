package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/auth0/go-jwks-cache/jwks"
)

type Config struct {
	JWKS   JWKSConfig
	Server ServerConfig
	Log    LogConfig
}

type JWKSConfig struct {
	URL          string
	IssuerURL    string // When set, the JWKS URL is discovered from the issuer.
	DefaultTTL   time.Duration
	HTTPTimeout  time.Duration
	SingleFlight bool
	ServeStale   bool
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		JWKS: JWKSConfig{
			URL:          getEnv("JWKS_URL", jwks.DefaultJWKSURL),
			IssuerURL:    getEnv("JWKS_ISSUER_URL", ""),
			DefaultTTL:   getDurationEnv("JWKS_DEFAULT_TTL", jwks.DefaultTTL),
			HTTPTimeout:  getDurationEnv("JWKS_HTTP_TIMEOUT", 30*time.Second),
			SingleFlight: getBoolEnv("JWKS_SINGLE_FLIGHT", false),
			ServeStale:   getBoolEnv("JWKS_SERVE_STALE", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := parseAbsoluteURL(c.JWKS.URL); err != nil {
		return fmt.Errorf("invalid JWKS_URL: %w", err)
	}
	if c.JWKS.IssuerURL != "" {
		if _, err := parseAbsoluteURL(c.JWKS.IssuerURL); err != nil {
			return fmt.Errorf("invalid JWKS_ISSUER_URL: %w", err)
		}
	}
	if c.JWKS.DefaultTTL <= 0 {
		return fmt.Errorf("JWKS_DEFAULT_TTL must be positive, got %s", c.JWKS.DefaultTTL)
	}
	if c.JWKS.HTTPTimeout <= 0 {
		return fmt.Errorf("JWKS_HTTP_TIMEOUT must be positive, got %s", c.JWKS.HTTPTimeout)
	}
	return nil
}

// JWKSURL returns the configured key set URL.
func (c *JWKSConfig) JWKSURL() (*url.URL, error) {
	return parseAbsoluteURL(c.URL)
}

// Issuer returns the configured issuer URL, or nil when discovery is off.
func (c *JWKSConfig) Issuer() (*url.URL, error) {
	if c.IssuerURL == "" {
		return nil, nil
	}
	return parseAbsoluteURL(c.IssuerURL)
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
