package thread

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/agentpatterns/hitlkit/kv"
)

// failingKV fails every operation.
type failingKV struct {
	err error
}

func (f failingKV) Get(ctx context.Context, key string) (string, error) { return "", f.err }
func (f failingKV) Set(ctx context.Context, key, value string) error    { return f.err }
func (f failingKV) Delete(ctx context.Context, key string) error        { return f.err }

// flakyKV fails the first Get and then delegates to the wrapped store.
type flakyKV struct {
	kv.Store
	failed bool
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, error) {
	if !f.failed {
		f.failed = true
		return "", errors.New("i/o timeout")
	}
	return f.Store.Get(ctx, key)
}

func sequentialIDs() (IDGenerator, *int) {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}, &n
}

func TestStore_ActiveIDCreatesOnce(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	gen, calls := sequentialIDs()
	s := NewStore(mem, WithIDGenerator(gen))

	first := s.ActiveID(ctx, "k")
	if first != "id-1" {
		t.Fatalf("ActiveID() = %q, want id-1", first)
	}
	if persisted, _ := mem.Get(ctx, "k"); persisted != first {
		t.Errorf("persisted = %q, want %q", persisted, first)
	}

	if second := s.ActiveID(ctx, "k"); second != first {
		t.Errorf("second ActiveID() = %q, want %q", second, first)
	}
	if *calls != 1 {
		t.Errorf("generator called %d times, want 1", *calls)
	}
}

func TestStore_ActiveIDReadsPersisted(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, "cpk-p2-thread", "existing")
	gen, calls := sequentialIDs()

	s := NewStore(mem, WithIDGenerator(gen))
	if got := s.ActiveID(ctx, "cpk-p2-thread"); got != "existing" {
		t.Errorf("ActiveID() = %q, want existing", got)
	}
	if *calls != 0 {
		t.Error("generator called although an id was persisted")
	}
}

func TestStore_NamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	gen, _ := sequentialIDs()
	s := NewStore(kv.NewMemory(), WithIDGenerator(gen))

	a := s.ActiveID(ctx, "a")
	b := s.ActiveID(ctx, "b")
	if a == b {
		t.Errorf("namespaces share id %q", a)
	}
}

func TestStore_DefaultGeneratorIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	a := s.ActiveID(ctx, "a")
	b := s.ActiveID(ctx, "b")
	if a == "" || a == b {
		t.Errorf("ids = %q, %q; want distinct non-empty", a, b)
	}
}

func TestStore_SetActiveIDNotifiesInOrder(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := NewStore(mem)

	var calls []string
	s.Subscribe("k", func(id string) { calls = append(calls, "first:"+id) })
	unsub := s.Subscribe("k", func(id string) { calls = append(calls, "second:"+id) })
	s.Subscribe("k", func(id string) { calls = append(calls, "third:"+id) })
	s.Subscribe("other", func(id string) { calls = append(calls, "other:"+id) })

	if err := s.SetActiveID(ctx, "k", "t1"); err != nil {
		t.Fatalf("SetActiveID() error = %v", err)
	}
	want := []string{"first:t1", "second:t1", "third:t1"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	if got := s.ActiveID(ctx, "k"); got != "t1" {
		t.Errorf("ActiveID() = %q, want t1", got)
	}
	if persisted, _ := mem.Get(ctx, "k"); persisted != "t1" {
		t.Errorf("persisted = %q, want t1", persisted)
	}

	unsub()
	calls = nil
	_ = s.SetActiveID(ctx, "k", "t2")
	want = []string{"first:t2", "third:t2"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls after unsubscribe = %v, want %v", calls, want)
	}
}

func TestStore_ListenerMaySubscribe(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	var nested int
	s.Subscribe("k", func(id string) {
		s.Subscribe("k", func(string) { nested++ })
	})

	_ = s.SetActiveID(ctx, "k", "t1")
	if nested != 0 {
		t.Errorf("listener added during dispatch was called %d times", nested)
	}
	_ = s.SetActiveID(ctx, "k", "t2")
	if nested != 1 {
		t.Errorf("nested = %d, want 1", nested)
	}
}

func TestStore_NewThread(t *testing.T) {
	ctx := context.Background()
	gen, _ := sequentialIDs()
	s := NewStore(kv.NewMemory(), WithIDGenerator(gen))

	old := s.ActiveID(ctx, "k")
	var notified string
	s.Subscribe("k", func(id string) { notified = id })

	id, err := s.NewThread(ctx, "k")
	if err != nil {
		t.Fatalf("NewThread() error = %v", err)
	}
	if id == old {
		t.Error("NewThread() returned the old id")
	}
	if notified != id {
		t.Errorf("notified = %q, want %q", notified, id)
	}
	if got := s.ActiveID(ctx, "k"); got != id {
		t.Errorf("ActiveID() = %q, want %q", got, id)
	}
}

func TestStore_StorageFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("disk full")
	gen, _ := sequentialIDs()
	s := NewStore(failingKV{err: storeErr}, WithIDGenerator(gen))

	id := s.ActiveID(ctx, "k")
	if id != "id-1" {
		t.Fatalf("ActiveID() = %q, want a generated id despite failures", id)
	}
	if again := s.ActiveID(ctx, "k"); again != id {
		t.Errorf("ActiveID() not cached: %q", again)
	}

	var notified bool
	s.Subscribe("k", func(string) { notified = true })
	if err := s.SetActiveID(ctx, "k", "t9"); !errors.Is(err, storeErr) {
		t.Errorf("SetActiveID() error = %v, want %v", err, storeErr)
	}
	if !notified {
		t.Error("subscribers not notified after a failed write")
	}
	if got := s.ActiveID(ctx, "k"); got != "t9" {
		t.Errorf("ActiveID() = %q, want t9", got)
	}
}

func TestStore_ReadFailureKeepsPersistedID(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, "k", "persisted-thread")
	gen, _ := sequentialIDs()

	s := NewStore(&flakyKV{Store: mem}, WithIDGenerator(gen))
	if got := s.ActiveID(ctx, "k"); got != "id-1" {
		t.Errorf("ActiveID() = %q, want an unsaved fallback id", got)
	}
	if stored, _ := mem.Get(ctx, "k"); stored != "persisted-thread" {
		t.Errorf("stored = %q, want persisted-thread", stored)
	}

	reopened := NewStore(mem, WithIDGenerator(gen))
	if got := reopened.ActiveID(ctx, "k"); got != "persisted-thread" {
		t.Errorf("reopened ActiveID() = %q, want persisted-thread", got)
	}
}

func TestStore_GenerateIDDoesNotActivate(t *testing.T) {
	ctx := context.Background()
	gen, _ := sequentialIDs()
	s := NewStore(kv.NewMemory(), WithIDGenerator(gen))

	active := s.ActiveID(ctx, "k")
	var notified bool
	s.Subscribe("k", func(string) { notified = true })

	if id := s.GenerateID(); id == active {
		t.Errorf("GenerateID() = %q, want a new id", id)
	}
	if got := s.ActiveID(ctx, "k"); got != active || notified {
		t.Errorf("ActiveID() = %q, notified = %v; want %q unchanged", got, notified, active)
	}
}
