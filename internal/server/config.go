// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the signaling service.
package server

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Tyrowin/roomsignal/internal/auth"
	"github.com/Tyrowin/roomsignal/internal/signaling"
)

const (
	defaultPort           = ":4000"
	defaultMaxMessageSize = 64 * 1024
	defaultSendBufferSize = 256
	defaultBurst          = 60
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// HistoryConfig bounds the per-room chat transcript.
type HistoryConfig struct {
	Capacity int
	Replay   int
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string
	Env             string
	AllowedOrigins  []string
	MaxMessageSize  int64
	SendBufferSize  int
	RateLimit       RateLimitConfig
	History         HistoryConfig
	JWTSecret       string
	ModeratorRoles  []string
	ShutdownTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		Port:           defaultPort,
		Env:            "development",
		AllowedOrigins: []string{"*"},
		MaxMessageSize: defaultMaxMessageSize,
		SendBufferSize: defaultSendBufferSize,
		RateLimit: RateLimitConfig{
			Burst:          defaultBurst,
			RefillInterval: time.Second,
		},
		History: HistoryConfig{
			Capacity: signaling.DefaultHistoryCapacity,
			Replay:   signaling.DefaultHistoryReplay,
		},
		ModeratorRoles:  append([]string(nil), auth.DefaultModeratorRoles...),
		ShutdownTimeout: 30 * time.Second,
	}
}

// Sanitize returns a copy of c with every unusable value replaced by its
// default.
func (c Config) Sanitize() Config {
	def := defaultConfig()

	c.Port = normalizePort(c.Port)
	if c.Env == "" {
		c.Env = def.Env
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = def.SendBufferSize
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}
	if c.History.Capacity <= 0 {
		c.History.Capacity = def.History.Capacity
	}
	if c.History.Replay <= 0 {
		c.History.Replay = def.History.Replay
	}
	if c.History.Replay > c.History.Capacity {
		c.History.Replay = c.History.Capacity
	}
	if len(c.ModeratorRoles) == 0 {
		c.ModeratorRoles = def.ModeratorRoles
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	c.ModeratorRoles = append([]string(nil), c.ModeratorRoles...)
	return c
}

// IsDevelopment returns true if running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables,
// loading a .env file first when one exists. Falls back to default values if
// environment variables are not set.
func NewConfigFromEnv() *Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if port := firstEnv("SERVER_PORT", "PORT"); port != "" {
		cfg.Port = port
	}

	if env := os.Getenv("ENV"); env != "" {
		cfg.Env = env
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseList(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if size := os.Getenv("SEND_BUFFER_SIZE"); size != "" {
		cfg.SendBufferSize = parseIntValue(size, cfg.SendBufferSize)
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseIntValue(burst, cfg.RateLimit.Burst)
	}

	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}

	if capacity := os.Getenv("HISTORY_CAPACITY"); capacity != "" {
		cfg.History.Capacity = parseIntValue(capacity, cfg.History.Capacity)
	}

	if replay := os.Getenv("HISTORY_REPLAY"); replay != "" {
		cfg.History.Replay = parseIntValue(replay, cfg.History.Replay)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	if roles := os.Getenv("MODERATOR_ROLES"); roles != "" {
		cfg.ModeratorRoles = parseList(roles)
	}

	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseSeconds(timeout, cfg.ShutdownTimeout)
	}

	cfg = cfg.Sanitize()
	return &cfg
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return defaultPort
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
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
