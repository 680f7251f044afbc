// Package config loads the service configuration from environment
// variables. Every setting has a default suited to a local run, and
// Validate reports all problems at once so a bad deployment fails on
// startup with the complete list.
package config

import (
	"strconv"
	"time"
)

// Config is the full runtime configuration, grouped by concern.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Action   ActionConfig
	Analysis AnalysisConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Host is the bind address (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the listen port; the conventional PORT variable works too
	// (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout closes idle keep-alive connections (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is applied to each request by the timeout middleware (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed size per file in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxFiles is the maximum number of files per upload action (default: 20)
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"20"`
}

// ActionConfig bounds concurrently running session actions.
type ActionConfig struct {
	// MaxConcurrent is the maximum number of actions running at once (default: 5)
	MaxConcurrent int `env:"ACTION_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for an action slot (default: 30s)
	MaxWaitTime time.Duration `env:"ACTION_MAX_WAIT_TIME" default:"30s"`

	// HistorySize caps the in-memory activity feed of recent actions (default: 256)
	HistorySize int `env:"ACTION_HISTORY_SIZE" default:"256"`
}

// AnalysisConfig holds the default analyzer column names. They seed new
// sessions and can be overridden per analysis run in the UI.
type AnalysisConfig struct {
	// BuyerColumn is the buyer-identity column name (default: 주문자)
	BuyerColumn string `env:"ANALYSIS_BUYER_COLUMN" default:"주문자"`

	// DateColumn is the order-date column name (default: 주문일)
	DateColumn string `env:"ANALYSIS_DATE_COLUMN" default:"주문일"`

	// AddressColumn is the shipping-address column name (default: 주소)
	AddressColumn string `env:"ANALYSIS_ADDRESS_COLUMN" default:"주소"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	// TTL is how long an idle session is kept (default: 30m)
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// SweepInterval is how often expired sessions are collected (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// CookieName is the session cookie name (default: osid)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"osid"`

	// CookieSecure marks the session cookie Secure; enable behind TLS (default: false)
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" default:"false"`
}

// RateLimitConfig throttles requests per client IP.
type RateLimitConfig struct {
	// Enabled turns the limiter on (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per client IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig covers proxy trust and response headers.
type SecurityConfig struct {
	// TrustedProxies lists proxies allowed to set client-IP headers,
	// comma separated, each a CIDR or a bare IP
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP adds a Content-Security-Policy header (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format selects the slog handler: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr joins host and port into a listen address.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
