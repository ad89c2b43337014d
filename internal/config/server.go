package config

import (
	"os"
	"time"
)

// Environment variable names for the server process. Values usually come
// from the environment directly or from a .env file loaded at startup.
const (
	EnvAddr            = "PROCTOR_ADDR"
	EnvTuningPath      = "PROCTOR_TUNING"
	EnvShutdownTimeout = "PROCTOR_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds the process-level settings that are not part of the
// pipeline tuning document.
type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string

	// TuningPath optionally points at a tuning JSON file. Empty means
	// built-in defaults.
	TuningPath string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the standard server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
	}
}

// ServerConfigFromEnv reads the server settings from the environment,
// falling back to defaults for unset variables.
func ServerConfigFromEnv() ServerConfig {
	cfg := DefaultServerConfig()
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvTuningPath); v != "" {
		cfg.TuningPath = v
	}
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	return cfg
}
