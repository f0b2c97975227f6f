package streaming

import (
	"strings"

	"github.com/agentpatterns/hitlkit/types"
)

// Accumulator accumulates text message events into a message history.
// It starts from a base history and appends each streamed message once it ends.
type Accumulator struct {
	messages []types.Message

	// Internal state for messages still being streamed
	current map[string]*pendingMessage
	order   []string
}

type pendingMessage struct {
	role types.Role
	text strings.Builder
}

// NewAccumulator creates a new accumulator seeded with base.
func NewAccumulator(base []types.Message) *Accumulator {
	return &Accumulator{
		messages: types.Clone(base),
		current:  make(map[string]*pendingMessage),
	}
}

// Process applies an event to the accumulated history.
// Events that do not affect messages are ignored.
func (a *Accumulator) Process(event Event) {
	switch e := event.(type) {
	case *TextMessageStartEvent:
		if _, exists := a.current[e.MessageID]; exists {
			return
		}
		role := e.Role
		if role == "" {
			role = types.RoleAssistant
		}
		a.current[e.MessageID] = &pendingMessage{role: role}
		a.order = append(a.order, e.MessageID)

	case *TextMessageContentEvent:
		msg, exists := a.current[e.MessageID]
		if !exists {
			return
		}
		msg.text.WriteString(e.Delta)

	case *TextMessageEndEvent:
		a.finish(e.MessageID)

	case *MessagesSnapshotEvent:
		a.messages = types.Clone(e.Messages)
		a.current = make(map[string]*pendingMessage)
		a.order = nil

	default:
		// Ignore unrelated events
	}
}

// finish moves a streamed message into the history.
func (a *Accumulator) finish(id string) {
	msg, exists := a.current[id]
	if !exists {
		return
	}
	delete(a.current, id)
	for i, pending := range a.order {
		if pending == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}

	if idx := types.IndexOf(a.messages, id); idx >= 0 {
		a.messages[idx].Content = msg.text.String()
		return
	}
	a.messages = append(a.messages, types.Message{
		ID:      id,
		Role:    msg.role,
		Content: msg.text.String(),
	})
}

// Messages returns the accumulated history.
// Messages still being streamed are included at the end with their partial text.
func (a *Accumulator) Messages() []types.Message {
	out := types.Clone(a.messages)
	for _, id := range a.order {
		msg := a.current[id]
		out = append(out, types.Message{ID: id, Role: msg.role, Content: msg.text.String()})
	}
	return out
}

// Streaming returns true while at least one message has not ended.
func (a *Accumulator) Streaming() bool {
	return len(a.current) > 0
}
