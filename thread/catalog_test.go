package thread

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentpatterns/hitlkit/kv"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return func() time.Time { return at }
}

func TestCatalog_SaveDefaultName(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(kv.NewMemory(), WithClock(fixedClock()))

	rec, err := c.Save(ctx, "k", "id1", "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.Name != "Thread 1" {
		t.Errorf("Name = %q, want Thread 1", rec.Name)
	}
	if !rec.SavedAt.Equal(fixedClock()()) {
		t.Errorf("SavedAt = %v", rec.SavedAt)
	}

	rec, _ = c.Save(ctx, "k", "id2", "   ")
	if rec.Name != "Thread 2" {
		t.Errorf("blank name = %q, want Thread 2", rec.Name)
	}

	rec, _ = c.Save(ctx, "k", "id3", "  Deploy review ")
	if rec.Name != "Deploy review" {
		t.Errorf("Name = %q, want Deploy review", rec.Name)
	}
}

func TestCatalog_ListOrderAndReload(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	c := NewCatalog(mem, WithClock(fixedClock()))

	for _, id := range []string{"a", "b", "a"} {
		if _, err := c.Save(ctx, "k", id, ""); err != nil {
			t.Fatal(err)
		}
	}

	reloaded := NewCatalog(mem).List(ctx, "k")
	if len(reloaded) != 3 {
		t.Fatalf("List() len = %d, want 3", len(reloaded))
	}
	for i, want := range []string{"a", "b", "a"} {
		if reloaded[i].ID != want {
			t.Errorf("record %d id = %q, want %q", i, reloaded[i].ID, want)
		}
	}
	if reloaded[2].Name != "Thread 3" {
		t.Errorf("duplicate save name = %q, want Thread 3", reloaded[2].Name)
	}
	if !reloaded[0].SavedAt.Equal(fixedClock()()) {
		t.Errorf("SavedAt did not survive a reload: %v", reloaded[0].SavedAt)
	}
}

func TestCatalog_DeleteRemovesAllMatches(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(kv.NewMemory())

	_, _ = c.Save(ctx, "k", "id1", "")
	_, _ = c.Save(ctx, "k", "id2", "")
	_, _ = c.Save(ctx, "k", "id1", "")

	removed, err := c.Delete(ctx, "k", "id1")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !removed {
		t.Error("Delete() reported nothing removed")
	}

	got := c.List(ctx, "k")
	if len(got) != 1 || got[0].ID != "id2" {
		t.Errorf("List() = %+v, want only id2", got)
	}

	removed, _ = c.Delete(ctx, "k", "missing")
	if removed {
		t.Error("Delete(missing) reported a removal")
	}
}

func TestCatalog_SaveThenDeleteIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	c := NewCatalog(mem)

	_, _ = c.Save(ctx, "k", "id1", "")
	_, _ = c.Delete(ctx, "k", "id1")

	if got := c.List(ctx, "k"); len(got) != 0 {
		t.Errorf("List() = %+v, want empty", got)
	}
	if raw, _ := mem.Get(ctx, Key("k")); raw != "[]" {
		t.Errorf("persisted = %q, want []", raw)
	}
}

func TestCatalog_ListCorrupt(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{oops"},
		{"object", `{"id":"x"}`},
		{"null", "null"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := kv.NewMemory()
			_ = mem.Set(ctx, Key("k"), tt.raw)

			got := NewCatalog(mem).List(ctx, "k")
			if got == nil || len(got) != 0 {
				t.Errorf("List() = %#v, want empty non-nil slice", got)
			}
		})
	}
}

func TestCatalog_CorruptIsReplacedOnSave(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, Key("k"), "garbage")
	c := NewCatalog(mem)

	rec, err := c.Save(ctx, "k", "id1", "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.Name != "Thread 1" {
		t.Errorf("Name = %q, want Thread 1", rec.Name)
	}
	if got := c.List(ctx, "k"); len(got) != 1 {
		t.Errorf("List() len = %d, want 1", len(got))
	}
}

func TestCatalog_NamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(kv.NewMemory())

	_, _ = c.Save(ctx, "cpk-p1-thread", "a", "")
	if got := c.List(ctx, "cpk-p2-thread"); len(got) != 0 {
		t.Errorf("other namespace sees %d records", len(got))
	}
}

func TestCatalog_StorageFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection reset")
	c := NewCatalog(failingKV{err: storeErr})

	if got := c.List(ctx, "k"); len(got) != 0 {
		t.Errorf("List() = %+v, want empty", got)
	}
	if _, err := c.Save(ctx, "k", "id", ""); !errors.Is(err, storeErr) {
		t.Errorf("Save() error = %v, want %v", err, storeErr)
	}
	if _, err := c.Delete(ctx, "k", "id"); !errors.Is(err, storeErr) {
		t.Errorf("Delete() error = %v, want %v", err, storeErr)
	}
}

func TestCatalog_ReadFailureKeepsRecords(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	seed := NewCatalog(mem)
	_, _ = seed.Save(ctx, "k", "a", "")
	_, _ = seed.Save(ctx, "k", "b", "")

	c := NewCatalog(&flakyKV{Store: mem})
	if _, err := c.Save(ctx, "k", "c", ""); err == nil {
		t.Fatal("Save() error = nil, want the read failure")
	}

	got := c.List(ctx, "k")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("List() = %+v, want a and b", got)
	}

	rec, err := c.Save(ctx, "k", "c", "")
	if err != nil {
		t.Fatalf("Save() retry error = %v", err)
	}
	if rec.Name != "Thread 3" {
		t.Errorf("Name = %q, want Thread 3", rec.Name)
	}
}

func TestCatalog_DeleteReadFailureKeepsRecords(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_, _ = NewCatalog(mem).Save(ctx, "k", "a", "")

	c := NewCatalog(&flakyKV{Store: mem})
	if removed, err := c.Delete(ctx, "k", "other"); err == nil || removed {
		t.Fatalf("Delete() = %v, %v; want the read failure", removed, err)
	}
	if got := c.List(ctx, "k"); len(got) != 1 {
		t.Errorf("List() len = %d, want 1", len(got))
	}
}

func TestCatalog_DisplayTextSavedAt(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, Key("k"), `[{"id":"a","name":"Thread 1","savedAt":"3:04:05 PM"}]`)
	c := NewCatalog(mem, WithClock(fixedClock()))

	got := c.List(ctx, "k")
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("List() = %+v, want record a", got)
	}
	if got[0].SavedAtText() != "3:04:05 PM" || !got[0].SavedAt.IsZero() {
		t.Errorf("SavedAtText() = %q, SavedAt = %v", got[0].SavedAtText(), got[0].SavedAt)
	}

	if _, err := c.Save(ctx, "k", "b", ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, _ := mem.Get(ctx, Key("k"))
	want := `[{"id":"a","name":"Thread 1","savedAt":"3:04:05 PM"},` +
		`{"id":"b","name":"Thread 2","savedAt":"2025-03-14T09:26:53Z"}]`
	if raw != want {
		t.Errorf("persisted = %s, want %s", raw, want)
	}
}

func TestKey(t *testing.T) {
	if got := Key("cpk-p1-thread"); got != "cpk-p1-thread-saved" {
		t.Errorf("Key() = %q", got)
	}
}
