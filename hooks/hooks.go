package hooks

import (
	"context"
	"sync"

	"github.com/agentpatterns/hitlkit/interrupt"
	"github.com/agentpatterns/hitlkit/thread"
)

// InterruptRevealedHook is called when an interrupt is shown to the user
type InterruptRevealedHook func(ctx context.Context, namespace string, prompt interrupt.Presentation) error

// ResumeHook is called after a response to an interrupt was sent
// Parameters: ctx, namespace, response, error from the resume run
type ResumeHook func(ctx context.Context, namespace, response string, err error) error

// RegenerateHook is called after a response regeneration was started
// kept is the length of the resubmitted prefix
type RegenerateHook func(ctx context.Context, namespace, messageID string, kept int) error

// ThreadChangedHook is called when the active thread of a namespace changes
type ThreadChangedHook func(ctx context.Context, namespace, threadID string) error

// ThreadSavedHook is called after a thread was saved to the catalog
type ThreadSavedHook func(ctx context.Context, namespace string, record thread.Record) error

// Registry holds all registered hooks
type Registry struct {
	mu                sync.RWMutex
	interruptRevealed []InterruptRevealedHook
	resume            []ResumeHook
	regenerate        []RegenerateHook
	threadChanged     []ThreadChangedHook
	threadSaved       []ThreadSavedHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		interruptRevealed: []InterruptRevealedHook{},
		resume:            []ResumeHook{},
		regenerate:        []RegenerateHook{},
		threadChanged:     []ThreadChangedHook{},
		threadSaved:       []ThreadSavedHook{},
	}
}

// OnInterruptRevealed registers a hook to be called when an interrupt is revealed
func (r *Registry) OnInterruptRevealed(hook InterruptRevealedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interruptRevealed = append(r.interruptRevealed, hook)
}

// OnResume registers a hook to be called after an interrupt response
func (r *Registry) OnResume(hook ResumeHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resume = append(r.resume, hook)
}

// OnRegenerate registers a hook to be called after a regeneration
func (r *Registry) OnRegenerate(hook RegenerateHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regenerate = append(r.regenerate, hook)
}

// OnThreadChanged registers a hook to be called when the active thread changes
func (r *Registry) OnThreadChanged(hook ThreadChangedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threadChanged = append(r.threadChanged, hook)
}

// OnThreadSaved registers a hook to be called after a thread is saved
func (r *Registry) OnThreadSaved(hook ThreadSavedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threadSaved = append(r.threadSaved, hook)
}

// TriggerInterruptRevealed calls all registered interrupt-revealed hooks
func (r *Registry) TriggerInterruptRevealed(ctx context.Context, namespace string, prompt interrupt.Presentation) error {
	r.mu.RLock()
	hooks := make([]InterruptRevealedHook, len(r.interruptRevealed))
	copy(hooks, r.interruptRevealed)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, namespace, prompt); err != nil {
			return err
		}
	}
	return nil
}

// TriggerResume calls all registered resume hooks
func (r *Registry) TriggerResume(ctx context.Context, namespace, response string, err error) error {
	r.mu.RLock()
	hooks := make([]ResumeHook, len(r.resume))
	copy(hooks, r.resume)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if hookErr := hook(ctx, namespace, response, err); hookErr != nil {
			return hookErr
		}
	}
	return nil
}

// TriggerRegenerate calls all registered regenerate hooks
func (r *Registry) TriggerRegenerate(ctx context.Context, namespace, messageID string, kept int) error {
	r.mu.RLock()
	hooks := make([]RegenerateHook, len(r.regenerate))
	copy(hooks, r.regenerate)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, namespace, messageID, kept); err != nil {
			return err
		}
	}
	return nil
}

// TriggerThreadChanged calls all registered thread-changed hooks
func (r *Registry) TriggerThreadChanged(ctx context.Context, namespace, threadID string) error {
	r.mu.RLock()
	hooks := make([]ThreadChangedHook, len(r.threadChanged))
	copy(hooks, r.threadChanged)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, namespace, threadID); err != nil {
			return err
		}
	}
	return nil
}

// TriggerThreadSaved calls all registered thread-saved hooks
func (r *Registry) TriggerThreadSaved(ctx context.Context, namespace string, record thread.Record) error {
	r.mu.RLock()
	hooks := make([]ThreadSavedHook, len(r.threadSaved))
	copy(hooks, r.threadSaved)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, namespace, record); err != nil {
			return err
		}
	}
	return nil
}

// Register wires every hook method implemented by h into the registry.
// It accepts LoggingHooks, VerboseLoggingHooks, MetricsHooks or any type
// implementing a subset of their methods.
func (r *Registry) Register(h any) {
	if v, ok := h.(interface {
		InterruptRevealed(context.Context, string, interrupt.Presentation) error
	}); ok {
		r.OnInterruptRevealed(v.InterruptRevealed)
	}
	if v, ok := h.(interface {
		Resume(context.Context, string, string, error) error
	}); ok {
		r.OnResume(v.Resume)
	}
	if v, ok := h.(interface {
		Regenerate(context.Context, string, string, int) error
	}); ok {
		r.OnRegenerate(v.Regenerate)
	}
	if v, ok := h.(interface {
		ThreadChanged(context.Context, string, string) error
	}); ok {
		r.OnThreadChanged(v.ThreadChanged)
	}
	if v, ok := h.(interface {
		ThreadSaved(context.Context, string, thread.Record) error
	}); ok {
		r.OnThreadSaved(v.ThreadSaved)
	}
}
