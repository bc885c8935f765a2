package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultLokiHost, cfg.Loki.Host)
	assert.True(t, cfg.Loki.Enabled)
	assert.Equal(t, DefaultBatchSize, cfg.Loki.BatchSize)
	assert.Equal(t, DefaultFlushInterval, cfg.Loki.FlushInterval)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, DefaultDataMaxDelay, cfg.Data.MaxDelay)
	assert.Equal(t, DefaultDataMaxValue, cfg.Data.MaxValue)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOKI_HOST", "http://localhost:3100")
	t.Setenv("LOKI_BATCH_SIZE", "10")
	t.Setenv("LOKI_FLUSH_INTERVAL", "250ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("DATA_MAX_DELAY", "50ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3100", cfg.Loki.Host)
	assert.Equal(t, 10, cfg.Loki.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Loki.FlushInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 50*time.Millisecond, cfg.Data.MaxDelay)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("LOKI_FLUSH_INTERVAL", "often")
	t.Setenv("LOKI_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultFlushInterval, cfg.Loki.FlushInterval)
	assert.True(t, cfg.Loki.Enabled)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"bad loki host", func(c *Config) { c.Loki.Host = "::not-a-url::" }},
		{"relative loki host", func(c *Config) { c.Loki.Host = "loki:3100/push" }},
		{"zero batch size", func(c *Config) { c.Loki.BatchSize = 0 }},
		{"zero queue size", func(c *Config) { c.Loki.QueueSize = 0 }},
		{"zero flush interval", func(c *Config) { c.Loki.FlushInterval = 0 }},
		{"zero push timeout", func(c *Config) { c.Loki.PushTimeout = 0 }},
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown format", func(c *Config) { c.Logging.Format = "logfmt" }},
		{"negative delay", func(c *Config) { c.Data.MaxDelay = -time.Second }},
		{"zero max value", func(c *Config) { c.Data.MaxValue = 0 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_LokiDisabledSkipsSinkChecks(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Loki.Enabled = false
	cfg.Loki.Host = "not a url"
	cfg.Loki.BatchSize = 0

	assert.NoError(t, cfg.Validate())
}
