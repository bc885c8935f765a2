package config

import (
	"os"
	"strconv"
	"time"
)

// Safe environment lookup helpers. Malformed values fall back to the
// default rather than failing, keeping startup behavior predictable.

// envString returns the value of an environment variable or a default
func envString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envInt returns an integer environment variable or a default
func envInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

// envBool returns a boolean environment variable or a default
func envBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// envDuration returns a duration environment variable (Go duration syntax,
// e.g. "500ms", "5s") or a default
func envDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
