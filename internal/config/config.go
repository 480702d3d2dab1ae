// Package config provides configuration loading for cartd.
//
// Configuration is assembled from hardcoded defaults, an optional YAML file
// and CARTD_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Storage drivers understood by the storage package.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageSQL    = "sql"
	StorageMemory = "memory"
)

// Config holds the complete cartd configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Storage       StorageConfig       `koanf:"storage"`
	Catalog       CatalogConfig       `koanf:"catalog"`
	Cart          CartConfig          `koanf:"cart"`
	Events        EventsConfig        `koanf:"events"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"http_host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// RateLimit is the sustained number of mutation requests per second.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// StorageConfig selects and configures the persistence medium.
type StorageConfig struct {
	Driver      string `koanf:"driver"`
	Key         string `koanf:"key"`
	Dir         string `koanf:"dir"`
	RedisURL    Secret `koanf:"redis_url"`
	RedisPrefix string `koanf:"redis_prefix"`
	DatabaseURL Secret `koanf:"database_url"`
}

// CatalogConfig points at an optional TOML product table.
// An empty path selects the built-in catalog.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// CartConfig holds presentation settings for derived cart views.
type CartConfig struct {
	Currency string `koanf:"currency"`
}

// EventsConfig controls change notifications over NATS.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ObservabilityConfig holds logging and OpenTelemetry settings.
type ObservabilityConfig struct {
	LogLevel        string `koanf:"log_level"`
	LogFormat       string `koanf:"log_format"`
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
	OTLPProtocol    string `koanf:"otlp_protocol"`
	ServiceName     string `koanf:"service_name"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Storage driver is unknown or missing its connection settings
//   - Events are enabled without a NATS URL
//   - Service name is empty (when telemetry is enabled)
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit must be >= 0, got %v", c.Server.RateLimit)
	}

	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage key cannot be empty")
	}
	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.Dir == "" {
			return errors.New("storage dir is required for file driver")
		}
	case StorageRedis:
		if !c.Storage.RedisURL.IsSet() {
			return errors.New("storage redis_url is required for redis driver")
		}
	case StorageSQL:
		if !c.Storage.DatabaseURL.IsSet() {
			return errors.New("storage database_url is required for sql driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q (want file, redis, sql or memory)", c.Storage.Driver)
	}

	if c.Events.Enabled && c.Events.NATSURL == "" {
		return errors.New("events nats_url is required when events are enabled")
	}

	switch c.Observability.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Observability.LogFormat)
	}
	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 20
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 40
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageFile
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "vanthu_cart"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "~/.config/cartd/state"
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = "cartd:"
	}

	if cfg.Cart.Currency == "" {
		cfg.Cart.Currency = "₹"
	}

	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "cart.changed"
	}

	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = "json"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "cartd"
	}
	if cfg.Observability.OTLPEndpoint == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
	}
	if cfg.Observability.OTLPProtocol == "" {
		cfg.Observability.OTLPProtocol = "grpc"
	}
}
