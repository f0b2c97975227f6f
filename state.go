package hitlkit

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Agent statuses carried in the state document.
const (
	StatusIdle     = "idle"
	StatusWorking  = "working"
	StatusDone     = "done"
	StatusError    = "error"
	StatusThinking = "thinking"
)

// settableStatuses are the statuses a user may set. StatusThinking is only
// ever set by the backend.
var settableStatuses = []string{StatusIdle, StatusWorking, StatusDone, StatusError}

// SettableStatuses returns the statuses accepted by SetStatus.
func SettableStatuses() []string {
	out := make([]string, len(settableStatuses))
	copy(out, settableStatuses)
	return out
}

// AgentState is the shared state document of the demo agent.
type AgentState struct {
	Counter int    `json:"counter"`
	Status  string `json:"status"`
}

// ParseState reads the known fields of a state document. Missing fields take
// their defaults: counter 0 and status "idle".
func ParseState(raw json.RawMessage) AgentState {
	state := AgentState{Status: StatusIdle}
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return state
	}

	doc := gjson.ParseBytes(raw)
	if c := doc.Get("counter"); c.Exists() {
		state.Counter = int(c.Int())
	}
	if s := doc.Get("status"); s.Exists() && s.String() != "" {
		state.Status = s.String()
	}
	return state
}

// patchState sets path in the state document and leaves every other field
// untouched.
func patchState(raw json.RawMessage, path string, value any) (json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage(`{}`)
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidState)
	}

	out, err := sjson.SetBytes(raw, path, value)
	if err != nil {
		return nil, fmt.Errorf("%w: set %s: %w", ErrInvalidState, path, err)
	}
	return out, nil
}

// Status summarizes what the UI shows about the agent.
type Status struct {
	Status       string `json:"status"`
	Running      bool   `json:"running"`
	Thinking     bool   `json:"thinking"`
	MessageCount int    `json:"messageCount"`
	Counter      int    `json:"counter"`
	ThreadID     string `json:"threadId"`
}
