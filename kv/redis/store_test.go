package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/agentpatterns/hitlkit/internal/testutil"
	"github.com/agentpatterns/hitlkit/kv"
)

func TestKey(t *testing.T) {
	if got := New(nil).Key("cpk-p1-thread"); got != "hitlkit:cpk-p1-thread" {
		t.Errorf("Key() = %q", got)
	}
	if got := New(nil, WithPrefix("")).Key("k"); got != "k" {
		t.Errorf("Key() without prefix = %q", got)
	}
}

func TestConnect_EmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  "); err == nil {
		t.Error("Connect() with empty url succeeded")
	}
}

func TestConnect_BadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "http://not-redis"); err == nil {
		t.Error("Connect() with invalid scheme succeeded")
	}
}

func TestIntegration_Store(t *testing.T) {
	client := testutil.NewRedisClient(t)
	ctx := context.Background()

	store := New(client, WithPrefix(testutil.UniqueName("hitlkit_test")+":"))
	t.Cleanup(func() { _ = store.Delete(context.Background(), "k") })

	if _, err := store.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get missing error = %v, want ErrNotFound", err)
	}
	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, err := store.Get(ctx, "k"); err != nil || got != "v1" {
		t.Errorf("Get = %q, %v; want v1", got, err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
}
