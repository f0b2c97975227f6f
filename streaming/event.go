package streaming

import (
	"encoding/json"

	"github.com/agentpatterns/hitlkit/types"
)

// EventType represents the type of streaming event
type EventType string

const (
	// EventTypeRunStarted indicates a run has started
	EventTypeRunStarted EventType = "RUN_STARTED"

	// EventTypeRunFinished indicates the backend finished the run
	EventTypeRunFinished EventType = "RUN_FINISHED"

	// EventTypeRunError indicates the run ended with an error
	EventTypeRunError EventType = "RUN_ERROR"

	// EventTypeRunFinalized is emitted by the client once a run has fully settled,
	// after RUN_FINISHED or RUN_ERROR and after every other event of the run.
	EventTypeRunFinalized EventType = "RUN_FINALIZED"

	// EventTypeCustom carries an application-defined named value
	EventTypeCustom EventType = "CUSTOM"

	// EventTypeTextMessageStart indicates a streamed message has started
	EventTypeTextMessageStart EventType = "TEXT_MESSAGE_START"

	// EventTypeTextMessageContent carries a chunk of message text
	EventTypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"

	// EventTypeTextMessageEnd indicates a streamed message has ended
	EventTypeTextMessageEnd EventType = "TEXT_MESSAGE_END"

	// EventTypeStateSnapshot replaces the agent state
	EventTypeStateSnapshot EventType = "STATE_SNAPSHOT"

	// EventTypeMessagesSnapshot replaces the message history
	EventTypeMessagesSnapshot EventType = "MESSAGES_SNAPSHOT"
)

// CustomEventInterrupt is the custom event name used by the backend to request human input.
const CustomEventInterrupt = "on_interrupt"

// Event represents a streaming event
type Event interface {
	Type() EventType
}

// RunStartedEvent is emitted when a run starts
type RunStartedEvent struct {
	ThreadID string
	RunID    string
}

func (e *RunStartedEvent) Type() EventType {
	return EventTypeRunStarted
}

// RunFinishedEvent is emitted when the backend completes a run
type RunFinishedEvent struct {
	ThreadID string
	RunID    string
}

func (e *RunFinishedEvent) Type() EventType {
	return EventTypeRunFinished
}

// RunErrorEvent is emitted when a run fails
type RunErrorEvent struct {
	Message string
	Code    string
}

func (e *RunErrorEvent) Type() EventType {
	return EventTypeRunError
}

// RunFinalizedEvent is emitted when a run has settled on the client
type RunFinalizedEvent struct {
	ThreadID string
	RunID    string
}

func (e *RunFinalizedEvent) Type() EventType {
	return EventTypeRunFinalized
}

// CustomEvent carries a named, opaque value.
// Value is whatever the transport decoded: a string, a map, or nil.
type CustomEvent struct {
	Name  string
	Value any
}

func (e *CustomEvent) Type() EventType {
	return EventTypeCustom
}

// TextMessageStartEvent is emitted when a streamed message starts
type TextMessageStartEvent struct {
	MessageID string
	Role      types.Role
}

func (e *TextMessageStartEvent) Type() EventType {
	return EventTypeTextMessageStart
}

// TextMessageContentEvent is emitted when message text arrives
type TextMessageContentEvent struct {
	MessageID string
	Delta     string
}

func (e *TextMessageContentEvent) Type() EventType {
	return EventTypeTextMessageContent
}

// TextMessageEndEvent is emitted when a streamed message ends
type TextMessageEndEvent struct {
	MessageID string
}

func (e *TextMessageEndEvent) Type() EventType {
	return EventTypeTextMessageEnd
}

// StateSnapshotEvent replaces the agent state document
type StateSnapshotEvent struct {
	Snapshot json.RawMessage
}

func (e *StateSnapshotEvent) Type() EventType {
	return EventTypeStateSnapshot
}

// MessagesSnapshotEvent replaces the message history
type MessagesSnapshotEvent struct {
	Messages []types.Message
}

func (e *MessagesSnapshotEvent) Type() EventType {
	return EventTypeMessagesSnapshot
}

// IsTerminal returns true for events that end a run on the backend side.
func IsTerminal(e Event) bool {
	switch e.Type() {
	case EventTypeRunFinished, EventTypeRunError:
		return true
	default:
		return false
	}
}
