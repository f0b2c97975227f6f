// Package agui defines the agent handle the toolkit drives.
//
// The handle is the external run-invocation interface: it owns the message
// history and state of one conversation, starts runs, and fans the run's
// event stream out to subscribers. Transports (direct HTTP, a server-side
// proxy, a single streaming endpoint) implement it; this module only
// consumes it.
package agui

import (
	"context"
	"encoding/json"

	"github.com/agentpatterns/hitlkit/streaming"
	"github.com/agentpatterns/hitlkit/types"
)

// DefaultAgentID is the agent id the demo backend registers.
const DefaultAgentID = "my-agent"

// Subscriber receives every event of every run, in delivery order.
type Subscriber func(event streaming.Event)

// Command is a graph command forwarded to the backend with a run.
type Command struct {
	// Resume answers a pending interrupt.
	Resume string `json:"resume"`
}

// ForwardedProps are passed through to the backend untouched.
type ForwardedProps struct {
	Command *Command `json:"command,omitempty"`
}

// RunParams configures a single run.
type RunParams struct {
	ForwardedProps *ForwardedProps `json:"forwardedProps,omitempty"`
}

// ResumeParams builds the run parameters that answer an interrupt.
func ResumeParams(response string) RunParams {
	return RunParams{
		ForwardedProps: &ForwardedProps{
			Command: &Command{Resume: response},
		},
	}
}

// Resume returns the resume value carried by p, if any.
func (p RunParams) Resume() (string, bool) {
	if p.ForwardedProps == nil || p.ForwardedProps.Command == nil {
		return "", false
	}
	return p.ForwardedProps.Command.Resume, true
}

// Agent is a handle on one conversation with a remote agent.
type Agent interface {
	// ID returns the agent id.
	ID() string

	// Messages returns a copy of the current history.
	Messages() []types.Message

	// SetMessages replaces the history that the next run submits.
	SetMessages(messages []types.Message)

	// State returns the current state document (JSON object), or nil.
	State() json.RawMessage

	// SetState replaces the state document and syncs it to the backend.
	SetState(state json.RawMessage)

	// IsRunning returns true while a run is in flight.
	IsRunning() bool

	// RunAgent starts a run with the current history.
	// Events of the run are delivered to subscribers; implementations may
	// deliver them before RunAgent returns.
	RunAgent(ctx context.Context, params RunParams) error

	// Subscribe registers a subscriber and returns a function that removes it.
	Subscribe(sub Subscriber) (unsubscribe func())
}

// ThreadBinder is implemented by agents that can be pointed at another thread.
// Binding a new thread replaces the history with that thread's persisted one.
type ThreadBinder interface {
	BindThread(ctx context.Context, threadID string) error
}
