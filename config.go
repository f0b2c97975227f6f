package hitlkit

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentpatterns/hitlkit/hooks"
	"github.com/agentpatterns/hitlkit/interrupt"
	"github.com/agentpatterns/hitlkit/kv"
	"github.com/agentpatterns/hitlkit/thread"
)

// Config holds the required configuration for a session.
// The agent handle is passed separately to New.
//
// Example:
//
//	session, _ := hitlkit.New(ctx, agent, hitlkit.Config{
//	    Namespace: "cpk-p1-thread",
//	    Store:     kv.NewMemory(),
//	})
type Config struct {
	// Namespace is the storage key of the active thread id (required).
	// Saved threads are stored under Namespace + "-saved".
	Namespace string

	// Store persists the thread id and the saved-thread catalog (required)
	Store kv.Store
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Namespace) == "" {
		return fmt.Errorf("%w: Namespace is required", ErrInvalidConfig)
	}

	if strings.HasSuffix(c.Namespace, thread.SavedSuffix) {
		return fmt.Errorf("%w: Namespace must not end in %q", ErrInvalidConfig, thread.SavedSuffix)
	}

	if c.Store == nil {
		return fmt.Errorf("%w: Store is required", ErrInvalidConfig)
	}

	return nil
}

// internalConfig holds the full session configuration including optional parameters
type internalConfig struct {
	// Required from Config
	namespace string
	store     kv.Store

	// Optional parameters
	logger          Logger
	hooks           *hooks.Registry
	newThreadID     thread.IDGenerator
	newMessageID    func() string
	now             func() time.Time
	approvalActions []string
}

// newInternalConfig creates a new internal config from the public Config
func newInternalConfig(cfg Config) *internalConfig {
	return &internalConfig{
		namespace: cfg.Namespace,
		store:     cfg.Store,

		// Defaults
		logger:          noopLogger{},
		hooks:           hooks.NewRegistry(),
		newThreadID:     thread.NewID,
		newMessageID:    thread.NewID,
		now:             time.Now,
		approvalActions: interrupt.DefaultApprovalActions(),
	}
}
