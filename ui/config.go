package ui

import (
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultMaxBodyBytes      = 1 << 20
)

// Config holds UI package configuration.
type Config struct {
	// BasePath is the URL prefix where the handler is mounted.
	// For example, if mounted at "/pattern1/", set BasePath to "/pattern1".
	// The prefix is stripped before routing.
	// Defaults to empty string (root mount).
	BasePath string

	// ReadOnly disables write operations (send, resume, thread changes).
	// Useful for monitoring-only deployments.
	ReadOnly bool

	// Logger for structured logging.
	// If nil, logging is disabled.
	Logger Logger

	// HeartbeatInterval for comments on the event stream.
	// Defaults to 15 seconds.
	HeartbeatInterval time.Duration

	// MaxBodyBytes limits request bodies.
	// Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Logger interface for structured logging.
// Compatible with hitlkit.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		HeartbeatInterval: DefaultHeartbeatInterval,
		MaxBodyBytes:      DefaultMaxBodyBytes,
	}
}

// applyDefaults fills in default values for zero-valued fields.
func (c *Config) applyDefaults() {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	if c.BasePath != "" && (!strings.HasPrefix(c.BasePath, "/") || strings.HasSuffix(c.BasePath, "/")) {
		return ErrInvalidConfig
	}
	if c.HeartbeatInterval < time.Second {
		return ErrInvalidConfig
	}
	if c.MaxBodyBytes < 1 {
		return ErrInvalidConfig
	}
	return nil
}
