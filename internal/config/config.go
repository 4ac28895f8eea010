// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Catalog  CatalogConfig
	Server   ServerConfig
	Database DatabaseConfig
	Merge    MergeConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// CatalogConfig holds the export and output locations used by file-based merges.
type CatalogConfig struct {
	// FullPath is the full catalog export (descriptive metadata)
	FullPath string `env:"CATALOG_FULL_PATH" default:"data/stock_export_full.xml"`

	// LightPath is the light catalog export (prices and stock)
	LightPath string `env:"CATALOG_LIGHT_PATH" default:"data/stock_light_export.xml"`

	// OutputPath is where the merged in-stock CSV is written
	OutputPath string `env:"CATALOG_OUTPUT_PATH" default:"out/products_with_stock.csv"`

	// SizesPath optionally receives the per-size stock report (disabled when empty)
	SizesPath string `env:"CATALOG_SIZES_PATH"`

	// SQLitePath optionally receives a SQLite snapshot of the merged rows
	SQLitePath string `env:"CATALOG_SQLITE_PATH"`

	// RefreshInterval re-merges the configured files periodically in the server (0 disables)
	RefreshInterval time.Duration `env:"CATALOG_REFRESH_INTERVAL" default:"0s"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds the optional Postgres run store settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; runs are only kept in memory when empty.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// Enabled reports whether a Postgres run store is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// MergeConfig holds merge run processing settings.
type MergeConfig struct {
	// MaxFileSize bounds each uploaded export; accepts byte sizes like "256MiB" (default: 256MiB)
	MaxFileSize int64 `env:"MERGE_MAX_FILE_SIZE" default:"256MiB" bytes:"true"`

	// MaxConcurrent is the maximum number of parallel merge runs (default: 2)
	MaxConcurrent int `env:"MERGE_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long to wait for a merge slot (default: 30s)
	MaxWaitTime time.Duration `env:"MERGE_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single merge run (default: 10m)
	Timeout time.Duration `env:"MERGE_TIMEOUT" default:"10m"`

	// HistorySize is the number of finished runs kept in memory (default: 20)
	HistorySize int `env:"MERGE_HISTORY_SIZE" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects the /api routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
