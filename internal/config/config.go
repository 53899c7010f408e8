// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/mmynk/currentsee/internal/solar"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverJSON     = "json"
	DriverMemory   = "memory"
)

const minJWTSecretLen = 32

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	StoreDriver string `env:"STORE_DRIVER" default:"sqlite"`
	DBPath      string `env:"DB_PATH" default:"./data/currentsee.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	MembersFile string `env:"MEMBERS_FILE" default:"./data/members.json"`

	ArtifactDir    string `env:"ARTIFACT_DIR" default:"./data/artifacts"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" default:"26214400"` // 25 MiB
	PreviewMaxDim  int    `env:"PREVIEW_MAX_DIM" default:"400"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" default:"24h"`

	DistributionEnabled  bool   `env:"DISTRIBUTION_ENABLED" default:"true"`
	DistributionTimezone string `env:"DISTRIBUTION_TIMEZONE" default:"UTC"`

	// Kept as strings so decimal parsing owns precision.
	SolarUSDValue string `env:"SOLAR_USD_VALUE" default:"136000"`
	KWhPerSolar   string `env:"KWH_PER_SOLAR" default:"4913"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
	LogFile   string `env:"LOG_FILE"`

	location *time.Location
	rates    solar.Rates
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Location is the zone whose midnight starts a distribution day.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Rates returns the parsed SOLAR conversion rates.
func (c *Config) Rates() solar.Rates {
	if c.rates.USDPerSolar.IsZero() {
		return solar.DefaultRates()
	}
	return c.rates
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverJSON:
		if c.MembersFile == "" {
			return errors.New("MEMBERS_FILE is required for the json store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of sqlite, postgres, json, memory, got %q", c.StoreDriver)
	}

	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("JWT_SECRET is required outside development")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	loc, err := time.LoadLocation(c.DistributionTimezone)
	if err != nil {
		return fmt.Errorf("DISTRIBUTION_TIMEZONE is not a valid zone: %w", err)
	}
	c.location = loc

	rates, err := solar.ParseRates(c.SolarUSDValue, c.KWhPerSolar)
	if err != nil {
		return fmt.Errorf("invalid SOLAR rates: %w", err)
	}
	c.rates = rates

	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.PreviewMaxDim <= 0 {
		return errors.New("PREVIEW_MAX_DIM must be positive")
	}

	return nil
}
