// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSecret is the development fallback for SECRET_KEY. It must be
// overridden in production.
const DefaultSecret = "your-secret-key-change-in-production"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	HTTP        HTTPConfig
	Auth        AuthConfig
	CORS        CORSConfig
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8431"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

type AuthConfig struct {
	Secret          string        `env:"SECRET_KEY" envDefault:"your-secret-key-change-in-production"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	BcryptCost      int           `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173,http://localhost:8080,http://localhost:5000,http://127.0.0.1:8000"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("AUTH_BCRYPT_COST must be within %d..%d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// InsecureSecret reports whether the development secret is in use.
func (c Config) InsecureSecret() bool {
	return c.Auth.Secret == DefaultSecret
}
