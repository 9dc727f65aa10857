package config

import "time"

// ServerConfig holds configuration for the schedsim server.
type ServerConfig struct {
	Addr         string        // Listen address (default ":8080")
	LogLevel     string        // Log level: debug, info, warn, error
	LogFormat    string        // Log format: text, json
	DBPath       string        // SQLite database path (default ~/.schedsim/schedsim.db, ":memory:" for testing)
	TickInterval time.Duration // Default wall-clock pacing for run ticks
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		LogLevel:     "info",
		LogFormat:    "text",
		TickInterval: 1 * time.Second,
	}
}
