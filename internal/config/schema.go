package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Schema   SchemaConfig   `yaml:"schema"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig holds the database handle settings.
// Environment variables are read with the ZMODELS_ prefix, e.g. ZMODELS_DB_DSN.
type DatabaseConfig struct {
	// Driver selects the SQL dialect: sqlite, mysql or postgres
	Driver string `yaml:"driver" envconfig:"DB_DRIVER" validate:"required,oneof=sqlite mysql postgres"`

	// DSN is the driver-specific data source name
	DSN string `yaml:"dsn" envconfig:"DB_DSN" validate:"required"`

	MaxOpenConns    int      `yaml:"max_open_conns,omitempty" envconfig:"DB_MAX_OPEN_CONNS" validate:"gte=0"`
	MaxIdleConns    int      `yaml:"max_idle_conns,omitempty" envconfig:"DB_MAX_IDLE_CONNS" validate:"gte=0"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime,omitempty" envconfig:"DB_CONN_MAX_LIFETIME"`

	// PingTimeout bounds the connectivity check made when the handle is opened
	PingTimeout Duration `yaml:"ping_timeout,omitempty" envconfig:"DB_PING_TIMEOUT"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT" validate:"omitempty,oneof=console json"`
}

// SchemaConfig locates the model schema file
type SchemaConfig struct {
	Path string `yaml:"path" envconfig:"SCHEMA_PATH" validate:"required"`
}

// ServerConfig holds HTTP server settings for `zmodels serve`
type ServerConfig struct {
	Addr            string   `yaml:"addr" envconfig:"SERVER_ADDR" validate:"required"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout,omitempty" envconfig:"SERVER_SHUTDOWN_TIMEOUT"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.Decode(s)
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Decode implements envconfig.Decoder
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
