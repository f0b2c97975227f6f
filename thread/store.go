// Package thread tracks which conversation thread is active per storage
// namespace and keeps a catalog of saved threads.
//
// Persisted layout, one kv entry per key:
//
//	<namespace>        active thread id (plain string)
//	<namespace>-saved  JSON array of {id, name, savedAt}
package thread

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/agentpatterns/hitlkit/kv"
)

// Logger interface for thread logging.
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

// Listener is called with the new active id after every SetActiveID.
type Listener func(id string)

// IDGenerator returns a fresh globally unique thread id.
type IDGenerator func() string

// NewID is the default IDGenerator.
func NewID() string {
	return uuid.NewString()
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator sets the id generator.
func WithIDGenerator(gen IDGenerator) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type subscription struct {
	id       int64
	listener Listener
}

// Store caches the active thread id per namespace on top of a kv.Store.
//
// The first ActiveID call for a namespace reads the persisted id, or
// generates and persists one. Later calls are served from the cache, so the
// id is stable for the lifetime of the Store.
type Store struct {
	kv     kv.Store
	newID  IDGenerator
	logger Logger

	mu        sync.Mutex
	active    map[string]string
	subs      map[string][]subscription
	nextSubID int64
}

// NewStore creates a Store backed by store.
func NewStore(store kv.Store, opts ...StoreOption) *Store {
	s := &Store{
		kv:     store,
		newID:  NewID,
		logger: noopLogger{},
		active: make(map[string]string),
		subs:   make(map[string][]subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActiveID returns the active thread id for namespace, creating and
// persisting one on first access.
//
// When the persisted id cannot be read, a fresh id is cached for this Store
// only and nothing is written, so the stored id survives until it is
// explicitly replaced.
func (s *Store) ActiveID(ctx context.Context, namespace string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.active[namespace]; ok {
		return id
	}

	id, err := s.kv.Get(ctx, namespace)
	switch {
	case err == nil && id != "":
		s.active[namespace] = id
		return id
	case err != nil && !errors.Is(err, kv.ErrNotFound):
		id = s.newID()
		s.active[namespace] = id
		s.logger.Warn("failed to read active thread id, using unsaved thread",
			"namespace", namespace, "thread_id", id, "error", err)
		return id
	}

	id = s.newID()
	s.active[namespace] = id
	if err := s.kv.Set(ctx, namespace, id); err != nil {
		s.logger.Warn("failed to persist active thread id", "namespace", namespace, "error", err)
	}
	s.logger.Debug("created thread", "namespace", namespace, "thread_id", id)
	return id
}

// SetActiveID makes id the active thread for namespace and notifies
// subscribers in registration order. The cache and subscribers are updated
// even when persisting fails; the write error is returned.
func (s *Store) SetActiveID(ctx context.Context, namespace, id string) error {
	s.mu.Lock()
	s.active[namespace] = id
	subs := make([]subscription, len(s.subs[namespace]))
	copy(subs, s.subs[namespace])
	s.mu.Unlock()

	err := s.kv.Set(ctx, namespace, id)
	if err != nil {
		s.logger.Warn("failed to persist active thread id", "namespace", namespace, "error", err)
	}

	// Listeners run synchronously and in order.
	for _, sub := range subs {
		sub.listener(id)
	}
	return err
}

// GenerateID returns a fresh thread id without activating it.
func (s *Store) GenerateID() string {
	return s.newID()
}

// NewThread switches namespace to a freshly generated id and returns it.
func (s *Store) NewThread(ctx context.Context, namespace string) (string, error) {
	id := s.newID()
	return id, s.SetActiveID(ctx, namespace, id)
}

// Subscribe registers listener for active id changes in namespace.
// Returns a function to unsubscribe.
func (s *Store) Subscribe(namespace string, listener Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := subscription{id: s.nextSubID, listener: listener}
	s.nextSubID++
	s.subs[namespace] = append(s.subs[namespace], sub)

	return func() {
		s.unsubscribe(namespace, sub.id)
	}
}

// unsubscribe removes a subscription.
func (s *Store) unsubscribe(namespace string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[namespace]
	for i, sub := range subs {
		if sub.id == id {
			s.subs[namespace] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(s.subs[namespace]) == 0 {
		delete(s.subs, namespace)
	}
}
