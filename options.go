package hitlkit

import (
	"strings"
	"time"

	"github.com/agentpatterns/hitlkit/hooks"
	"github.com/agentpatterns/hitlkit/thread"
)

// Option is a functional option for configuring a Session
type Option func(*internalConfig) error

// WithLogger sets the structured logger. *slog.Logger satisfies Logger.
func WithLogger(logger Logger) Option {
	return func(c *internalConfig) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithHooks sets the hook registry
func WithHooks(registry *hooks.Registry) Option {
	return func(c *internalConfig) error {
		if registry == nil {
			return NewSessionError("WithHooks", ErrInvalidConfig).
				WithContext("reason", "registry is nil")
		}
		c.hooks = registry
		return nil
	}
}

// WithIDGenerator sets the generator for new thread ids
func WithIDGenerator(gen thread.IDGenerator) Option {
	return func(c *internalConfig) error {
		if gen == nil {
			return NewSessionError("WithIDGenerator", ErrInvalidConfig).
				WithContext("reason", "generator is nil")
		}
		c.newThreadID = gen
		return nil
	}
}

// WithMessageIDGenerator sets the generator for ids of sent user messages
func WithMessageIDGenerator(gen func() string) Option {
	return func(c *internalConfig) error {
		if gen == nil {
			return NewSessionError("WithMessageIDGenerator", ErrInvalidConfig).
				WithContext("reason", "generator is nil")
		}
		c.newMessageID = gen
		return nil
	}
}

// WithClock sets the time source used for saved-thread timestamps
func WithClock(now func() time.Time) Option {
	return func(c *internalConfig) error {
		if now == nil {
			return NewSessionError("WithClock", ErrInvalidConfig).
				WithContext("reason", "clock is nil")
		}
		c.now = now
		return nil
	}
}

// WithApprovalActions adds interrupt actions presented as approve/cancel
// prompts, in addition to "server_command_approval"
func WithApprovalActions(actions ...string) Option {
	return func(c *internalConfig) error {
		for _, a := range actions {
			if strings.TrimSpace(a) == "" {
				return NewSessionError("WithApprovalActions", ErrInvalidConfig).
					WithContext("reason", "empty action")
			}
			c.approvalActions = append(c.approvalActions, a)
		}
		return nil
	}
}
