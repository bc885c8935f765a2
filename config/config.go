// Package config provides environment-driven configuration for
// observability-app. There is no config file and there are no CLI flags:
// every setting has a hardcoded default and can be overridden through
// environment variables (a local .env file is honored when present).
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"

	"github.com/kayaman/observability-app/errors"
)

// Default values applied when the corresponding environment variable is unset
const (
	DefaultPort          = 3000
	DefaultLokiHost      = "http://loki:3100"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultDataMaxDelay  = 500 * time.Millisecond
	DefaultDataMaxValue  = 100
	DefaultFlushInterval = 1 * time.Second
	DefaultBatchSize     = 100
	DefaultQueueSize     = 1024
	DefaultPushTimeout   = 5 * time.Second
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Loki    LokiConfig
	Logging LoggingConfig
	Data    DataConfig
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Port              int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// LokiConfig defines the remote log aggregator sink settings
type LokiConfig struct {
	Host          string
	Enabled       bool
	BatchSize     int
	FlushInterval time.Duration
	QueueSize     int
	PushTimeout   time.Duration
}

// LoggingConfig defines structured logging settings
type LoggingConfig struct {
	Level  string
	Format string
}

// DataConfig tunes the simulated data endpoint
type DataConfig struct {
	MaxDelay time.Duration
	MaxValue int
}

// Load builds configuration from the environment, applying defaults for
// anything unset. A .env file in the working directory is loaded first when
// present; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:              envInt("PORT", DefaultPort),
			ReadHeaderTimeout: envDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ShutdownTimeout:   envDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Loki: LokiConfig{
			Host:          envString("LOKI_HOST", DefaultLokiHost),
			Enabled:       envBool("LOKI_ENABLED", true),
			BatchSize:     envInt("LOKI_BATCH_SIZE", DefaultBatchSize),
			FlushInterval: envDuration("LOKI_FLUSH_INTERVAL", DefaultFlushInterval),
			QueueSize:     envInt("LOKI_QUEUE_SIZE", DefaultQueueSize),
			PushTimeout:   envDuration("LOKI_PUSH_TIMEOUT", DefaultPushTimeout),
		},
		Logging: LoggingConfig{
			Level:  envString("LOG_LEVEL", DefaultLogLevel),
			Format: envString("LOG_FORMAT", DefaultLogFormat),
		},
		Data: DataConfig{
			MaxDelay: envDuration("DATA_MAX_DELAY", DefaultDataMaxDelay),
			MaxValue: envInt("DATA_MAX_VALUE", DefaultDataMaxValue),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("port %d out of range", c.Server.Port))
	}

	if c.Loki.Enabled {
		u, err := url.Parse(c.Loki.Host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("loki host %q is not a valid URL", c.Loki.Host))
		}
		if c.Loki.BatchSize < 1 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"loki batch size must be positive")
		}
		if c.Loki.QueueSize < 1 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"loki queue size must be positive")
		}
		if c.Loki.FlushInterval <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"loki flush interval must be positive")
		}
		if c.Loki.PushTimeout <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"loki push timeout must be positive")
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}

	if c.Data.MaxDelay < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"data max delay must not be negative")
	}
	if c.Data.MaxValue < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"data max value must be positive")
	}

	return nil
}
