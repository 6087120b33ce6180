// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the GoRelay service.
package server

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig defines the parameters for per-session line rate limiting.
// A Burst of zero disables rate limiting entirely.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings for both transports.
type Config struct {
	// ListenAddr is the TCP address the line protocol binds to.
	ListenAddr string
	// HTTPAddr is the address of the HTTP server hosting the WebSocket gateway.
	HTTPAddr string
	// IdleTimeout is the per-session inactivity window before forced disconnect.
	IdleTimeout time.Duration
	// HistorySize bounds the broadcast history replayed to new logins.
	HistorySize int
	// MaxLineLength caps a single protocol line in bytes. Zero means unlimited.
	MaxLineLength  int
	AllowedOrigins []string
	RateLimit      RateLimitConfig
}

var (
	configMu           sync.RWMutex
	activeConfig       Config
	activeOriginPolicy originPolicy
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		ListenAddr:  "127.0.0.1:4000",
		HTTPAddr:    "127.0.0.1:4001",
		IdleTimeout: 60 * time.Second,
		HistorySize: 100,
		AllowedOrigins: []string{
			"http://localhost:4001",
		},
		RateLimit: RateLimitConfig{
			RefillInterval: time.Second,
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:4000"
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = "127.0.0.1:4001"
	}

	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}

	if cfg.MaxLineLength < 0 {
		cfg.MaxLineLength = 0
	}

	if cfg.RateLimit.Burst < 0 {
		cfg.RateLimit.Burst = 0
	}

	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}

	policy, normalizedOrigins := compileOriginPolicy(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	activeOriginPolicy = policy

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		defaultCfg := defaultConfig()
		sanitizeConfig(defaultCfg)
		return
	}

	sanitized := Config{
		ListenAddr:     cfg.ListenAddr,
		HTTPAddr:       cfg.HTTPAddr,
		IdleTimeout:    cfg.IdleTimeout,
		HistorySize:    cfg.HistorySize,
		MaxLineLength:  cfg.MaxLineLength,
		AllowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		RateLimit: RateLimitConfig{
			Burst:          cfg.RateLimit.Burst,
			RefillInterval: cfg.RateLimit.RefillInterval,
		},
	}
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	// Load CHAT_LISTEN_ADDR
	if addr := os.Getenv("CHAT_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}

	// Load CHAT_HTTP_ADDR
	if addr := os.Getenv("CHAT_HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	// Load CHAT_IDLE_TIMEOUT (seconds)
	if timeout := os.Getenv("CHAT_IDLE_TIMEOUT"); timeout != "" {
		cfg.IdleTimeout = parseSeconds(timeout, cfg.IdleTimeout)
	}

	// Load CHAT_HISTORY_SIZE
	if size := os.Getenv("CHAT_HISTORY_SIZE"); size != "" {
		cfg.HistorySize = parsePositiveInt(size, cfg.HistorySize)
	}

	// Load CHAT_MAX_LINE_LENGTH (zero keeps lines unbounded)
	if maxLen := os.Getenv("CHAT_MAX_LINE_LENGTH"); maxLen != "" {
		cfg.MaxLineLength = parseNonNegativeInt(maxLen, cfg.MaxLineLength)
	}

	// Load CHAT_ALLOWED_ORIGINS
	if origins := os.Getenv("CHAT_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	// Load CHAT_RATE_LIMIT_BURST (zero disables rate limiting)
	if burst := os.Getenv("CHAT_RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseNonNegativeInt(burst, cfg.RateLimit.Burst)
	}

	// Load CHAT_RATE_LIMIT_REFILL_INTERVAL
	if interval := os.Getenv("CHAT_RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}

	return &cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parsePositiveInt(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseNonNegativeInt(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
