// Package config provides configuration management for zmodels.
//
// Configuration is read from a YAML file, then overridden by environment
// variables (ZMODELS_ prefix, optionally from a .env file), then validated.
//
// Config file locations (priority order):
//  1. $ZMODELS_CONFIG
//  2. ./zmodels.yaml
//  3. $XDG_CONFIG_HOME/zmodels/config.yaml
//  4. ~/.config/zmodels/config.yaml
//  5. /etc/zmodels/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides
const EnvPrefix = "ZMODELS"

// Load finds and loads the config file, or starts from defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.finish(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// finish applies environment overrides, defaults and validation
func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	c.applyDefaults()
	return c.Validate()
}

// applyEnv overlays ZMODELS_* environment variables.
// A .env file in the working directory is loaded first when present.
func (c *Config) applyEnv() error {
	_ = godotenv.Load()

	// Each section is processed separately to keep variable names flat
	// (ZMODELS_DB_DSN rather than ZMODELS_DATABASE_DB_DSN)
	if err := envconfig.Process(EnvPrefix, &c.Database); err != nil {
		return fmt.Errorf("load database env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &c.Log); err != nil {
		return fmt.Errorf("load log env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &c.Schema); err != nil {
		return fmt.Errorf("load schema env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &c.Server); err != nil {
		return fmt.Errorf("load server env: %w", err)
	}
	return nil
}

// Validate checks the config against its validate tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config as YAML, creating parent directories
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a local SQLite setup
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Database: DatabaseConfig{
			Driver:      "sqlite",
			DSN:         "./zmodels.db",
			PingTimeout: Duration(10 * time.Second),
		},
		Log:    LogConfig{Level: "info", Format: "console"},
		Schema: SchemaConfig{Path: "./models.yaml"},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration(30 * time.Second),
		},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.PingTimeout == 0 {
		c.Database.PingTimeout = Duration(10 * time.Second)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(30 * time.Second)
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	return fmt.Sprintf("driver: %s, schema: %s, log: %s/%s",
		c.Database.Driver, c.Schema.Path, c.Log.Level, c.Log.Format)
}
