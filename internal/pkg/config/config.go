package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultDBFile = "logs.db"
)

// Config holds all application configuration.
type Config struct {
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":5000"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9091"`
	DatabaseDriver  string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabasePath    string        `env:"DATABASE_PATH"` // empty means logs.db next to the executable
	PostgresURL     string        `env:"POSTGRES_URL"`
	SeedSampleData  bool          `env:"SEED_SAMPLE_DATA" envDefault:"true"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"` // 1MB
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.DatabaseDriver == DriverSQLite && cfg.DatabasePath == "" {
		path, err := defaultDatabasePath()
		if err != nil {
			return nil, err
		}
		cfg.DatabasePath = path
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.PostgresURL == "" {
			return errors.New("POSTGRES_URL is required when DATABASE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	return nil
}

func defaultDatabasePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), defaultDBFile), nil
}
