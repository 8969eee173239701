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
	Server   ServerConfig
	Sheets   SheetsConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including running imports (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SheetsConfig holds settings for downloading document pages.
type SheetsConfig struct {
	// URLFormat builds page URLs from a document ID and a page name.
	URLFormat string `env:"SHEETS_URL_FORMAT" default:"https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s"`

	// DefaultDocumentID is used by datasets that do not name a document.
	DefaultDocumentID string `env:"SHEETS_DEFAULT_DOCUMENT" envAlt:"SHEETS_DOCUMENT_ID"`

	// FetchTimeout bounds a single page download (default: 30s)
	FetchTimeout time.Duration `env:"SHEETS_FETCH_TIMEOUT" default:"30s"`

	// MaxPageBytes is the largest accepted page (default: 32MB)
	MaxPageBytes int64 `env:"SHEETS_MAX_PAGE_BYTES" default:"33554432"`

	// UserAgent is sent with every download.
	UserAgent string `env:"SHEETS_USER_AGENT" default:"sheetsync/1.0"`

	// RequestsPerSecond paces downloads across all imports (default: 5, 0 disables)
	RequestsPerSecond float64 `env:"SHEETS_REQUESTS_PER_SECOND" default:"5"`

	// Burst is the pacer's bucket size (default: 5)
	Burst int `env:"SHEETS_BURST" default:"5"`
}

// ImportConfig holds import run settings.
type ImportConfig struct {
	// MaxConcurrent is the maximum number of parallel imports (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 10s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`

	// Timeout is the maximum duration of one import run (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`

	// ResultRetention is how long finished imports stay queryable (default: 10m)
	ResultRetention time.Duration `env:"IMPORT_RESULT_RETENTION" default:"10m"`
}

// RateLimitConfig holds API rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for import-starting endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For header is honored when identifying clients.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects the endpoints that start or abort imports (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted X-API-Key values
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
