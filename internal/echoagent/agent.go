// Package echoagent provides an in-process agent that follows a fixed script.
//
// It speaks the same event protocol as a remote agent and is used by tests
// and the demo server:
//
//	"!<command>"    raise a server_command_approval interrupt for <command>
//	"?<question>"   raise a free-form interrupt asking <question>
//	anything else   reply "Echo: <message>"
//
// A resume answers the pending interrupt. Each bound thread keeps its own
// history and state.
package echoagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/agentpatterns/hitlkit/agui"
	"github.com/agentpatterns/hitlkit/interrupt"
	"github.com/agentpatterns/hitlkit/runstate"
	"github.com/agentpatterns/hitlkit/streaming"
	"github.com/agentpatterns/hitlkit/types"
)

// ErrRunInProgress is returned when RunAgent is called during a run.
var ErrRunInProgress = errors.New("echoagent: run already in progress")

// Prefixes recognized in user messages.
const (
	CommandPrefix  = "!"
	QuestionPrefix = "?"
)

// ApprovalReason is the reason attached to every command approval.
const ApprovalReason = "Server commands require human approval"

// Option configures an Agent.
type Option func(*Agent)

// WithID sets the agent id.
func WithID(id string) Option {
	return func(a *Agent) {
		if id != "" {
			a.id = id
		}
	}
}

// WithIDGenerator sets the generator for run and message ids.
func WithIDGenerator(gen func() string) Option {
	return func(a *Agent) {
		if gen != nil {
			a.newID = gen
		}
	}
}

// WithUnwrappedInterrupts sends interrupt payloads without the wrapper field.
func WithUnwrappedInterrupts() Option {
	return func(a *Agent) {
		a.wrap = false
	}
}

// pending is an interrupt awaiting a resume.
type pending struct {
	command  string
	question string
}

// threadData is the persisted part of a thread.
type threadData struct {
	messages   []types.Message
	state      json.RawMessage
	checkpoint int
	pending    *pending
}

// Agent is a scripted agui.Agent.
type Agent struct {
	id    string
	newID func() string
	wrap  bool

	tracker *runstate.Tracker

	mu        sync.Mutex
	threadID  string
	threads   map[string]*threadData
	current   *threadData
	running   bool
	subs      map[int64]agui.Subscriber
	subOrder  []int64
	nextSubID int64
}

var (
	_ agui.Agent        = (*Agent)(nil)
	_ agui.ThreadBinder = (*Agent)(nil)
)

// New creates an agent bound to an unnamed thread.
func New(opts ...Option) *Agent {
	a := &Agent{
		id:      agui.DefaultAgentID,
		newID:   uuid.NewString,
		wrap:    true,
		tracker: runstate.NewTracker(),
		threads: make(map[string]*threadData),
		subs:    make(map[int64]agui.Subscriber),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.current = &threadData{state: json.RawMessage(`{"counter":0,"status":"idle"}`)}
	a.threads[""] = a.current
	return a
}

// ID implements agui.Agent.
func (a *Agent) ID() string {
	return a.id
}

// ThreadID returns the bound thread.
func (a *Agent) ThreadID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.threadID
}

// BindThread implements agui.ThreadBinder.
func (a *Agent) BindThread(ctx context.Context, threadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return ErrRunInProgress
	}
	data, ok := a.threads[threadID]
	if !ok {
		data = &threadData{state: json.RawMessage(`{"counter":0,"status":"idle"}`)}
		a.threads[threadID] = data
	}
	a.threadID = threadID
	a.current = data
	return nil
}

// Messages implements agui.Agent.
func (a *Agent) Messages() []types.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return types.Clone(a.current.messages)
}

// SetMessages implements agui.Agent.
func (a *Agent) SetMessages(messages []types.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current.messages = types.Clone(messages)
}

// State implements agui.Agent.
func (a *Agent) State() json.RawMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append(json.RawMessage(nil), a.current.state...)
}

// SetState implements agui.Agent.
func (a *Agent) SetState(state json.RawMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current.state = append(json.RawMessage(nil), state...)
}

// IsRunning implements agui.Agent.
func (a *Agent) IsRunning() bool {
	return a.tracker.Running()
}

// Runs returns the number of runs started.
func (a *Agent) Runs() int {
	return a.tracker.Runs()
}

// Subscribe implements agui.Agent. Subscribers are called in registration order.
func (a *Agent) Subscribe(sub agui.Subscriber) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSubID
	a.nextSubID++
	a.subs[id] = sub
	a.subOrder = append(a.subOrder, id)

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs, id)
		for i, sid := range a.subOrder {
			if sid == id {
				a.subOrder = append(a.subOrder[:i:i], a.subOrder[i+1:]...)
				break
			}
		}
	}
}

// emit delivers event to every subscriber outside the lock.
func (a *Agent) emit(event streaming.Event) {
	a.tracker.Process(event)

	a.mu.Lock()
	subs := make([]agui.Subscriber, 0, len(a.subOrder))
	for _, id := range a.subOrder {
		subs = append(subs, a.subs[id])
	}
	a.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
}

// RunAgent implements agui.Agent. The whole run is delivered before it returns.
func (a *Agent) RunAgent(ctx context.Context, params agui.RunParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrRunInProgress
	}
	a.running = true
	data := a.current
	threadID := a.threadID
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	runID := a.newID()
	a.emit(&streaming.RunStartedEvent{ThreadID: threadID, RunID: runID})
	a.setStatus(data, "thinking")

	if response, ok := params.Resume(); ok {
		a.resume(data, response)
	} else {
		a.turn(data)
	}

	a.setStatus(data, "idle")

	a.mu.Lock()
	data.checkpoint = len(data.messages)
	a.mu.Unlock()

	a.emit(&streaming.RunFinishedEvent{ThreadID: threadID, RunID: runID})
	a.emit(&streaming.RunFinalizedEvent{ThreadID: threadID, RunID: runID})
	return nil
}

// turn answers the latest user message.
func (a *Agent) turn(data *threadData) {
	a.mu.Lock()
	messages := types.Clone(data.messages)
	regenerated := len(messages) < data.checkpoint
	a.mu.Unlock()

	var last types.Message
	if n := len(messages); n > 0 {
		last = messages[n-1]
	}
	if last.Role != types.RoleUser {
		a.reply(data, "Echo: (nothing to answer)")
		return
	}

	switch {
	case strings.HasPrefix(last.Content, CommandPrefix):
		command := strings.TrimSpace(strings.TrimPrefix(last.Content, CommandPrefix))
		a.raise(data, &pending{command: command}, map[string]any{
			"action": interrupt.ActionServerCommandApproval,
			"args": map[string]any{
				"command":          command,
				"reason":           ApprovalReason,
				"original_message": last.Content,
			},
		})

	case strings.HasPrefix(last.Content, QuestionPrefix):
		question := strings.TrimSpace(strings.TrimPrefix(last.Content, QuestionPrefix))
		a.raise(data, &pending{question: question}, map[string]any{
			"message": question,
		})

	case regenerated:
		a.reply(data, "Echo (regenerated): "+last.Content)

	default:
		a.reply(data, "Echo: "+last.Content)
	}
}

// resume answers the pending interrupt with response.
func (a *Agent) resume(data *threadData, response string) {
	a.mu.Lock()
	p := data.pending
	data.pending = nil
	a.mu.Unlock()

	switch {
	case p == nil:
		a.reply(data, "Nothing to resume; received: "+response)
	case p.command != "" && response == interrupt.ResponseApproved:
		a.reply(data, fmt.Sprintf("Executed: %s", p.command))
	case p.command != "" && response == interrupt.ResponseCancel:
		a.reply(data, fmt.Sprintf("Cancelled: %s", p.command))
	case p.command != "":
		a.reply(data, fmt.Sprintf("Not executed: %s (answer was %q)", p.command, response))
	default:
		a.reply(data, fmt.Sprintf("%s -> %s", p.question, response))
	}
}

// raise records p and emits the interrupt event for payload.
func (a *Agent) raise(data *threadData, p *pending, payload map[string]any) {
	a.mu.Lock()
	data.pending = p
	a.mu.Unlock()

	var value any = payload
	if a.wrap {
		value = map[string]any{interrupt.WrapperKey: payload}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		a.emit(&streaming.RunErrorEvent{Message: err.Error()})
		return
	}
	a.emit(&streaming.CustomEvent{Name: streaming.CustomEventInterrupt, Value: string(raw)})
}

// reply streams text as one assistant message, word by word.
func (a *Agent) reply(data *threadData, text string) {
	a.mu.Lock()
	acc := streaming.NewAccumulator(data.messages)
	a.mu.Unlock()

	id := a.newID()
	events := []streaming.Event{&streaming.TextMessageStartEvent{MessageID: id, Role: types.RoleAssistant}}
	words := strings.SplitAfter(text, " ")
	for _, w := range words {
		events = append(events, &streaming.TextMessageContentEvent{MessageID: id, Delta: w})
	}
	events = append(events, &streaming.TextMessageEndEvent{MessageID: id})

	for _, e := range events {
		acc.Process(e)
		a.emit(e)
	}

	a.mu.Lock()
	data.messages = acc.Messages()
	a.mu.Unlock()
}

// setStatus patches the status field and emits a state snapshot.
func (a *Agent) setStatus(data *threadData, status string) {
	a.mu.Lock()
	next, err := sjson.SetBytes(data.state, "status", status)
	if err == nil {
		data.state = next
	}
	snapshot := append(json.RawMessage(nil), data.state...)
	a.mu.Unlock()

	a.emit(&streaming.StateSnapshotEvent{Snapshot: snapshot})
}
