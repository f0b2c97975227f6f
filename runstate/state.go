// Package runstate provides the client-side view of an agent run lifecycle.
//
// A run is one execution of the agent in response to a user turn (or a
// resume). The client observes it only through the event stream:
//
//	idle -> running          (RUN_STARTED)
//	running -> finished      (RUN_FINISHED, or RUN_FINALIZED without a finish)
//	running -> failed        (RUN_ERROR)
//	finished -> running      (next RUN_STARTED)
//	failed -> running        (next RUN_STARTED)
//
// Unlike a server-side run, no state is terminal: a conversation keeps
// starting new runs.
package runstate

import (
	"fmt"
	"sync"

	"github.com/agentpatterns/hitlkit/streaming"
)

// RunState represents the observed state of the latest run.
type RunState string

const (
	// RunStateIdle indicates no run has been observed yet.
	RunStateIdle RunState = "idle"

	// RunStateRunning indicates a run has started and not yet ended.
	RunStateRunning RunState = "running"

	// RunStateFinished indicates the latest run completed.
	RunStateFinished RunState = "finished"

	// RunStateFailed indicates the latest run ended with an error.
	RunStateFailed RunState = "failed"
)

// AllStates returns all possible run states.
func AllStates() []RunState {
	return []RunState{
		RunStateIdle,
		RunStateRunning,
		RunStateFinished,
		RunStateFailed,
	}
}

// IsValid returns true if the state is a valid RunState value.
func (s RunState) IsValid() bool {
	switch s {
	case RunStateIdle, RunStateRunning, RunStateFinished, RunStateFailed:
		return true
	default:
		return false
	}
}

// IsSettled returns true if no run is in flight.
func (s RunState) IsSettled() bool {
	return s != RunStateRunning
}

// CanTransitionTo returns true if a transition from this state to the
// target state is valid. Same-state transitions are not valid.
func (s RunState) CanTransitionTo(target RunState) bool {
	if s == target {
		return false
	}

	switch s {
	case RunStateIdle, RunStateFinished, RunStateFailed:
		return target == RunStateRunning
	case RunStateRunning:
		return target == RunStateFinished || target == RunStateFailed
	}

	return false
}

// String returns the string representation of the state.
func (s RunState) String() string {
	return string(s)
}

// Transition represents a state transition with validation.
type Transition struct {
	From RunState
	To   RunState
}

// Validate returns an error if the transition is invalid.
func (t Transition) Validate() error {
	if !t.From.IsValid() {
		return fmt.Errorf("runstate: invalid source state %q", t.From)
	}
	if !t.To.IsValid() {
		return fmt.Errorf("runstate: invalid target state %q", t.To)
	}
	if !t.From.CanTransitionTo(t.To) {
		return fmt.Errorf("runstate: invalid transition from %q to %q", t.From, t.To)
	}
	return nil
}

// ValidTransitions returns all valid state transitions.
func ValidTransitions() []Transition {
	return []Transition{
		{From: RunStateIdle, To: RunStateRunning},
		{From: RunStateRunning, To: RunStateFinished},
		{From: RunStateRunning, To: RunStateFailed},
		{From: RunStateFinished, To: RunStateRunning},
		{From: RunStateFailed, To: RunStateRunning},
	}
}

// Tracker follows run lifecycle events and reports the current state.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	state     RunState
	runID     string
	lastError string
	runs      int
}

// NewTracker creates a tracker in the idle state.
func NewTracker() *Tracker {
	return &Tracker{state: RunStateIdle}
}

// Process applies a lifecycle event. Other events are ignored.
func (t *Tracker) Process(event streaming.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := event.(type) {
	case *streaming.RunStartedEvent:
		t.state = RunStateRunning
		t.runID = e.RunID
		t.lastError = ""
		t.runs++
	case *streaming.RunFinishedEvent:
		t.move(RunStateFinished)
	case *streaming.RunErrorEvent:
		if t.move(RunStateFailed) {
			t.lastError = e.Message
		}
	case *streaming.RunFinalizedEvent:
		// A run that settles without an explicit finish still counts as finished.
		t.move(RunStateFinished)
	}
}

// move applies a validated transition and reports whether it happened.
func (t *Tracker) move(to RunState) bool {
	if !t.state.CanTransitionTo(to) {
		return false
	}
	t.state = to
	return true
}

// State returns the current state.
func (t *Tracker) State() RunState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Running returns true while a run is in flight.
func (t *Tracker) Running() bool {
	return !t.State().IsSettled()
}

// RunID returns the id of the latest run.
func (t *Tracker) RunID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runID
}

// LastError returns the error message of the latest run if it failed.
func (t *Tracker) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

// Runs returns the number of runs observed.
func (t *Tracker) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}
