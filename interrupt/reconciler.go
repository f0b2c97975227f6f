package interrupt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agentpatterns/hitlkit/agui"
	"github.com/agentpatterns/hitlkit/streaming"
)

// Errors returned by the reconciler.
var (
	// ErrNoInterrupt is returned when responding while nothing is revealed.
	ErrNoInterrupt = errors.New("interrupt: no revealed interrupt")

	// ErrNotApproval is returned by Approve and Cancel when the revealed
	// interrupt is not a recognized approval.
	ErrNotApproval = errors.New("interrupt: revealed interrupt is not an approval")
)

// Phase is the reconciler state.
type Phase string

const (
	// PhaseIdle means nothing is pending or revealed.
	PhaseIdle Phase = "idle"

	// PhaseBuffering means an interrupt arrived and waits for the run to settle.
	PhaseBuffering Phase = "buffering"

	// PhaseRevealed means an interrupt is shown and waits for a response.
	PhaseRevealed Phase = "revealed"
)

// Logger interface for reconciler logging.
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

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithApprovalActions adds approval actions presented as approve/cancel.
func WithApprovalActions(actions ...string) Option {
	return func(r *Reconciler) {
		for _, action := range actions {
			r.recognized[action] = struct{}{}
		}
	}
}

// OnReveal sets a callback invoked after an interrupt is revealed.
// It runs outside the reconciler lock.
func OnReveal(fn func(Value)) Option {
	return func(r *Reconciler) {
		r.onReveal = fn
	}
}

// Reconciler holds at most one pending and one revealed interrupt for an agent.
//
// Transitions:
//
//	RUN_STARTED               clear pending and revealed
//	CUSTOM on_interrupt       parse, store as pending (last write wins)
//	RUN_FINALIZED             pending -> revealed, if any
//	Respond                   clear revealed, send one resume run
type Reconciler struct {
	agent      agui.Agent
	recognized map[string]struct{}
	onReveal   func(Value)
	logger     Logger

	mu          sync.Mutex
	pending     Value
	revealed    Value
	unsubscribe func()
}

// NewReconciler creates a reconciler subscribed to agent's events.
// A nil agent yields a reconciler whose actions are no-ops.
func NewReconciler(agent agui.Agent, opts ...Option) *Reconciler {
	r := &Reconciler{
		agent:      agent,
		recognized: make(map[string]struct{}),
		logger:     noopLogger{},
	}
	for _, action := range DefaultApprovalActions() {
		r.recognized[action] = struct{}{}
	}
	for _, opt := range opts {
		opt(r)
	}

	if agent != nil {
		r.unsubscribe = agent.Subscribe(r.HandleEvent)
	}
	return r
}

// HandleEvent applies one stream event.
func (r *Reconciler) HandleEvent(event streaming.Event) {
	var revealed Value

	r.mu.Lock()
	switch e := event.(type) {
	case *streaming.RunStartedEvent:
		r.pending = nil
		r.revealed = nil

	case *streaming.CustomEvent:
		if e.Name != streaming.CustomEventInterrupt {
			break
		}
		v, ok := Parse(e.Value)
		if !ok {
			v = nil
		}
		r.pending = v
		if v != nil {
			r.logger.Debug("interrupt buffered", "kind", v.Kind())
		}

	case *streaming.RunFinalizedEvent:
		if r.pending != nil {
			r.revealed = r.pending
			r.pending = nil
			revealed = r.revealed
		}
	}
	r.mu.Unlock()

	if revealed != nil {
		r.logger.Info("interrupt revealed", "kind", revealed.Kind())
		if r.onReveal != nil {
			r.onReveal(revealed)
		}
	}
}

// Phase returns the current state.
func (r *Reconciler) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.revealed != nil:
		return PhaseRevealed
	case r.pending != nil:
		return PhaseBuffering
	default:
		return PhaseIdle
	}
}

// Revealed returns the interrupt currently shown to the user.
func (r *Reconciler) Revealed() (Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revealed, r.revealed != nil
}

// Prompt returns how the revealed interrupt should be presented.
func (r *Reconciler) Prompt() (Presentation, bool) {
	v, ok := r.Revealed()
	if !ok {
		return Presentation{}, false
	}
	return Present(v, r.recognized), true
}

// Respond answers the revealed interrupt with response and resumes the run.
//
// The revealed slot is cleared before the resume run is started so that
// events of the resumed run, which may be delivered synchronously, are not
// wiped afterwards. If the run cannot be started and nothing new arrived in
// the meantime, the interrupt is revealed again.
func (r *Reconciler) Respond(ctx context.Context, response string) error {
	if r.agent == nil {
		return nil
	}

	r.mu.Lock()
	answered := r.revealed
	r.revealed = nil
	r.mu.Unlock()

	if answered == nil {
		return ErrNoInterrupt
	}

	if err := r.agent.RunAgent(ctx, agui.ResumeParams(response)); err != nil {
		r.mu.Lock()
		if r.revealed == nil && r.pending == nil {
			r.revealed = answered
		}
		r.mu.Unlock()
		r.logger.Warn("resume failed", "error", err)
		return fmt.Errorf("interrupt: resume: %w", err)
	}

	r.logger.Debug("interrupt answered", "kind", answered.Kind())
	return nil
}

// Approve answers a revealed approval with ResponseApproved.
func (r *Reconciler) Approve(ctx context.Context) error {
	return r.respondApproval(ctx, ResponseApproved)
}

// Cancel answers a revealed approval with ResponseCancel.
func (r *Reconciler) Cancel(ctx context.Context) error {
	return r.respondApproval(ctx, ResponseCancel)
}

func (r *Reconciler) respondApproval(ctx context.Context, response string) error {
	if r.agent == nil {
		return nil
	}
	p, ok := r.Prompt()
	if !ok {
		return ErrNoInterrupt
	}
	if p.Kind != PromptApproval {
		return ErrNotApproval
	}
	return r.Respond(ctx, response)
}

// Reset drops both pending and revealed interrupts.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	r.revealed = nil
}

// Close unsubscribes from the agent.
func (r *Reconciler) Close() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
