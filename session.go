package hitlkit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agentpatterns/hitlkit/agui"
	"github.com/agentpatterns/hitlkit/interrupt"
	"github.com/agentpatterns/hitlkit/regenerate"
	"github.com/agentpatterns/hitlkit/runstate"
	"github.com/agentpatterns/hitlkit/streaming"
	"github.com/agentpatterns/hitlkit/thread"
	"github.com/agentpatterns/hitlkit/types"
)

// Session drives one agent handle within one storage namespace.
//
// A nil agent is allowed: interrupt, regeneration, send and state actions
// then do nothing, while thread bookkeeping keeps working.
type Session struct {
	agent agui.Agent
	cfg   *internalConfig

	threads    *thread.Store
	catalog    *thread.Catalog
	reconciler *interrupt.Reconciler
	regen      *regenerate.Regenerator
	tracker    *runstate.Tracker

	// switchMu serializes thread switches so binding follows store order.
	switchMu sync.Mutex

	unsubscribe []func()
	closed      atomic.Bool
}

// New creates a session for agent and binds it to the namespace's active
// thread, creating one on first use.
func New(ctx context.Context, agent agui.Agent, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ic := newInternalConfig(cfg)
	for _, opt := range opts {
		if err := opt(ic); err != nil {
			return nil, err
		}
	}

	s := &Session{
		agent: agent,
		cfg:   ic,
		threads: thread.NewStore(ic.store,
			thread.WithIDGenerator(ic.newThreadID),
			thread.WithStoreLogger(ic.logger),
		),
		catalog: thread.NewCatalog(ic.store,
			thread.WithClock(ic.now),
			thread.WithCatalogLogger(ic.logger),
		),
		regen:   regenerate.New(agent, ic.logger),
		tracker: runstate.NewTracker(),
	}

	s.reconciler = interrupt.NewReconciler(agent,
		interrupt.WithLogger(ic.logger),
		interrupt.WithApprovalActions(ic.approvalActions...),
		interrupt.OnReveal(s.onReveal),
	)
	s.unsubscribe = append(s.unsubscribe, s.reconciler.Close)

	if agent != nil {
		s.unsubscribe = append(s.unsubscribe, agent.Subscribe(func(e streaming.Event) {
			s.tracker.Process(e)
		}))
	}

	threadID := s.threads.ActiveID(ctx, ic.namespace)
	if err := s.bind(ctx, threadID); err != nil {
		s.Close()
		return nil, NewSessionErrorWithNamespace("New", ic.namespace, err).
			WithContext("thread_id", threadID)
	}

	ic.logger.Debug("session ready", "namespace", ic.namespace, "thread_id", threadID)
	return s, nil
}

// onReveal reports a revealed interrupt to the hooks.
func (s *Session) onReveal(v interrupt.Value) {
	prompt, ok := s.reconciler.Prompt()
	if !ok {
		return
	}
	if err := s.cfg.hooks.TriggerInterruptRevealed(context.Background(), s.cfg.namespace, prompt); err != nil {
		s.cfg.logger.Warn("interrupt hook failed", "error", err)
	}
}

// bind points a thread-aware agent at threadID.
func (s *Session) bind(ctx context.Context, threadID string) error {
	binder, ok := s.agent.(agui.ThreadBinder)
	if !ok {
		return nil
	}
	return binder.BindThread(ctx, threadID)
}

func (s *Session) checkOpen(op string) error {
	if s.closed.Load() {
		return NewSessionErrorWithNamespace(op, s.cfg.namespace, ErrSessionClosed)
	}
	return nil
}

// Namespace returns the storage namespace.
func (s *Session) Namespace() string {
	return s.cfg.namespace
}

// Agent returns the agent handle, which may be nil.
func (s *Session) Agent() agui.Agent {
	return s.agent
}

// ThreadID returns the active thread id.
func (s *Session) ThreadID(ctx context.Context) string {
	return s.threads.ActiveID(ctx, s.cfg.namespace)
}

// NewThread switches to a fresh thread and returns its id.
func (s *Session) NewThread(ctx context.Context) (string, error) {
	if err := s.checkOpen("NewThread"); err != nil {
		return "", err
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	id := s.threads.GenerateID()
	err := s.switchTo(ctx, "NewThread", id)
	if err != nil && !errors.Is(err, ErrStorageError) {
		return "", err
	}
	return id, err
}

// LoadThread switches to an existing thread.
func (s *Session) LoadThread(ctx context.Context, id string) error {
	if err := s.checkOpen("LoadThread"); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return NewSessionErrorWithNamespace("LoadThread", s.cfg.namespace, ErrEmptyThreadID)
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	return s.switchTo(ctx, "LoadThread", id)
}

// switchTo binds the agent to id and only then makes id the active thread.
// A failed bind leaves the active thread, the interrupts and the listeners
// untouched. A failed write still switches and is reported as a storage error.
func (s *Session) switchTo(ctx context.Context, op, id string) error {
	if err := s.bind(ctx, id); err != nil {
		return NewSessionErrorWithNamespace(op, s.cfg.namespace, err).
			WithContext("thread_id", id)
	}

	s.reconciler.Reset()
	err := s.threads.SetActiveID(ctx, s.cfg.namespace, id)
	if hookErr := s.cfg.hooks.TriggerThreadChanged(ctx, s.cfg.namespace, id); hookErr != nil {
		s.cfg.logger.Warn("thread hook failed", "error", hookErr)
	}
	s.cfg.logger.Info("switched thread", "namespace", s.cfg.namespace, "thread_id", id)

	if err != nil {
		s.cfg.logger.Warn("active thread not persisted", "thread_id", id, "error", err)
		return NewSessionErrorWithNamespace(op, s.cfg.namespace, storageError(err)).
			WithContext("thread_id", id)
	}
	return nil
}

// OnThreadChange registers listener for active thread changes.
// Returns a function to unsubscribe.
func (s *Session) OnThreadChange(listener func(threadID string)) func() {
	return s.threads.Subscribe(s.cfg.namespace, listener)
}

// SavedThreads returns the saved threads in save order.
func (s *Session) SavedThreads(ctx context.Context) []thread.Record {
	return s.catalog.List(ctx, s.cfg.namespace)
}

// SaveThread saves the active thread under name. A blank name gets a
// numbered default.
func (s *Session) SaveThread(ctx context.Context, name string) (thread.Record, error) {
	if err := s.checkOpen("SaveThread"); err != nil {
		return thread.Record{}, err
	}

	rec, err := s.catalog.Save(ctx, s.cfg.namespace, s.ThreadID(ctx), name)
	if err != nil {
		return thread.Record{}, NewSessionErrorWithNamespace("SaveThread", s.cfg.namespace, storageError(err))
	}
	if err := s.cfg.hooks.TriggerThreadSaved(ctx, s.cfg.namespace, rec); err != nil {
		s.cfg.logger.Warn("thread saved hook failed", "error", err)
	}
	return rec, nil
}

// DeleteSavedThread removes every saved record of id and reports whether
// any existed.
func (s *Session) DeleteSavedThread(ctx context.Context, id string) (bool, error) {
	if err := s.checkOpen("DeleteSavedThread"); err != nil {
		return false, err
	}

	removed, err := s.catalog.Delete(ctx, s.cfg.namespace, id)
	if err != nil {
		return false, NewSessionErrorWithNamespace("DeleteSavedThread", s.cfg.namespace, storageError(err)).
			WithContext("thread_id", id)
	}
	return removed, nil
}

// Interrupt returns the revealed interrupt.
func (s *Session) Interrupt() (interrupt.Value, bool) {
	return s.reconciler.Revealed()
}

// Prompt returns how the revealed interrupt should be shown.
func (s *Session) Prompt() (interrupt.Presentation, bool) {
	return s.reconciler.Prompt()
}

// InterruptPhase returns the reconciler state.
func (s *Session) InterruptPhase() interrupt.Phase {
	return s.reconciler.Phase()
}

// Respond answers the revealed interrupt with free text.
func (s *Session) Respond(ctx context.Context, response string) error {
	return s.resume(ctx, "Respond", response, s.reconciler.Respond)
}

// Approve answers a revealed approval with "APPROVED".
func (s *Session) Approve(ctx context.Context) error {
	return s.resume(ctx, "Approve", interrupt.ResponseApproved, func(ctx context.Context, _ string) error {
		return s.reconciler.Approve(ctx)
	})
}

// Cancel answers a revealed approval with "CANCEL".
func (s *Session) Cancel(ctx context.Context) error {
	return s.resume(ctx, "Cancel", interrupt.ResponseCancel, func(ctx context.Context, _ string) error {
		return s.reconciler.Cancel(ctx)
	})
}

func (s *Session) resume(ctx context.Context, op, response string, send func(context.Context, string) error) error {
	if err := s.checkOpen(op); err != nil {
		return err
	}

	err := send(ctx, response)
	if errors.Is(err, interrupt.ErrNoInterrupt) || errors.Is(err, interrupt.ErrNotApproval) {
		return NewSessionErrorWithNamespace(op, s.cfg.namespace, err)
	}
	if s.agent == nil {
		return nil
	}

	if hookErr := s.cfg.hooks.TriggerResume(ctx, s.cfg.namespace, response, err); hookErr != nil {
		s.cfg.logger.Warn("resume hook failed", "error", hookErr)
	}
	if err != nil {
		return NewSessionErrorWithNamespace(op, s.cfg.namespace, err)
	}
	return nil
}

// Regenerate produces the assistant message messageID again. Unknown ids
// and non-assistant messages are ignored.
func (s *Session) Regenerate(ctx context.Context, messageID string) error {
	if err := s.checkOpen("Regenerate"); err != nil {
		return err
	}

	prefix, err := s.regen.Regenerate(ctx, messageID)
	if prefix != nil {
		if hookErr := s.cfg.hooks.TriggerRegenerate(ctx, s.cfg.namespace, messageID, len(prefix)); hookErr != nil {
			s.cfg.logger.Warn("regenerate hook failed", "error", hookErr)
		}
	}
	if err != nil {
		return NewSessionErrorWithNamespace("Regenerate", s.cfg.namespace, err).
			WithContext("message_id", messageID)
	}
	return nil
}

// Send appends a user message to the history and starts a run.
func (s *Session) Send(ctx context.Context, content string) error {
	if err := s.checkOpen("Send"); err != nil {
		return err
	}
	if s.agent == nil {
		return nil
	}
	if strings.TrimSpace(content) == "" {
		return NewSessionErrorWithNamespace("Send", s.cfg.namespace, ErrEmptyMessage)
	}

	messages := s.agent.Messages()
	messages = append(messages, types.Message{
		ID:      s.cfg.newMessageID(),
		Role:    types.RoleUser,
		Content: content,
	})
	s.agent.SetMessages(messages)

	if err := s.agent.RunAgent(ctx, agui.RunParams{}); err != nil {
		return NewSessionErrorWithNamespace("Send", s.cfg.namespace, err)
	}
	return nil
}

// Messages returns the current history.
func (s *Session) Messages() []types.Message {
	if s.agent == nil {
		return nil
	}
	return s.agent.Messages()
}

// Running reports whether a run is in flight.
func (s *Session) Running() bool {
	if s.agent == nil {
		return false
	}
	return s.tracker.Running() || s.agent.IsRunning()
}

// RunState returns the observed state of the latest run.
func (s *Session) RunState() runstate.RunState {
	return s.tracker.State()
}

// State returns the agent's shared state.
func (s *Session) State() AgentState {
	if s.agent == nil {
		return ParseState(nil)
	}
	return ParseState(s.agent.State())
}

// Status summarizes the agent for display.
func (s *Session) Status(ctx context.Context) Status {
	state := s.State()
	return Status{
		Status:       state.Status,
		Running:      s.Running(),
		Thinking:     state.Status == StatusThinking,
		MessageCount: len(s.Messages()),
		Counter:      state.Counter,
		ThreadID:     s.ThreadID(ctx),
	}
}

// IncrementCounter adds one to the state counter and pushes the state.
func (s *Session) IncrementCounter() (AgentState, error) {
	return s.updateState("IncrementCounter", func(st AgentState) (string, any, error) {
		return "counter", st.Counter + 1, nil
	})
}

// DecrementCounter subtracts one from the state counter and pushes the state.
func (s *Session) DecrementCounter() (AgentState, error) {
	return s.updateState("DecrementCounter", func(st AgentState) (string, any, error) {
		return "counter", st.Counter - 1, nil
	})
}

// SetStatus sets the state status to one of SettableStatuses.
func (s *Session) SetStatus(status string) (AgentState, error) {
	return s.updateState("SetStatus", func(AgentState) (string, any, error) {
		for _, known := range settableStatuses {
			if status == known {
				return "status", status, nil
			}
		}
		return "", nil, ErrUnknownStatus
	})
}

func (s *Session) updateState(op string, patch func(AgentState) (string, any, error)) (AgentState, error) {
	if err := s.checkOpen(op); err != nil {
		return AgentState{}, err
	}
	if s.agent == nil {
		return s.State(), nil
	}

	raw := s.agent.State()
	path, value, err := patch(ParseState(raw))
	if err != nil {
		return AgentState{}, NewSessionErrorWithNamespace(op, s.cfg.namespace, err)
	}

	next, err := patchState(raw, path, value)
	if err != nil {
		return AgentState{}, NewSessionErrorWithNamespace(op, s.cfg.namespace, err)
	}
	s.agent.SetState(next)
	return ParseState(next), nil
}

// Close detaches the session from the agent. It is safe to call more than once.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	for i := len(s.unsubscribe) - 1; i >= 0; i-- {
		s.unsubscribe[i]()
	}
	s.unsubscribe = nil
}
