package regenerate

import (
	"context"
	"fmt"

	"github.com/agentpatterns/hitlkit/agui"
	"github.com/agentpatterns/hitlkit/types"
)

// Logger interface for regeneration logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Regenerator resubmits a truncated history to an agent.
type Regenerator struct {
	agent  agui.Agent
	logger Logger
}

// New creates a Regenerator. A nil agent makes Regenerate a no-op.
func New(agent agui.Agent, logger Logger) *Regenerator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Regenerator{agent: agent, logger: logger}
}

// Regenerate replaces the agent history with the planned prefix for the
// assistant message messageID and starts a new run.
//
// It returns the submitted prefix, or nil when nothing was done: no agent, an
// unknown id, or a message that is not an assistant message. Only a failing
// run is reported as an error.
func (r *Regenerator) Regenerate(ctx context.Context, messageID string) ([]types.Message, error) {
	if r.agent == nil {
		return nil, nil
	}

	messages := r.agent.Messages()
	target := types.IndexOf(messages, messageID)
	if target < 0 {
		r.logger.Debug("regenerate: message not found", "message_id", messageID)
		return nil, nil
	}
	if messages[target].Role != types.RoleAssistant {
		r.logger.Debug("regenerate: not an assistant message",
			"message_id", messageID,
			"role", messages[target].Role,
		)
		return nil, nil
	}

	prefix := Plan(messages, target)
	if len(prefix) == 0 {
		return nil, nil
	}

	r.agent.SetMessages(prefix)
	r.logger.Info("regenerating response",
		"message_id", messageID,
		"kept", len(prefix),
		"dropped", len(messages)-len(prefix),
	)

	if err := r.agent.RunAgent(ctx, agui.RunParams{}); err != nil {
		return prefix, fmt.Errorf("regenerate: run agent: %w", err)
	}
	return prefix, nil
}
