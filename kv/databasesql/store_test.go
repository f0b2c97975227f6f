package databasesql

import (
	"context"
	"errors"
	"testing"

	"github.com/agentpatterns/hitlkit/internal/testutil"
	"github.com/agentpatterns/hitlkit/kv"
)

func TestIdent(t *testing.T) {
	s := New(nil, WithTable(`odd"name`))
	if got, want := s.ident(), `"odd""name"`; got != want {
		t.Errorf("ident() = %s, want %s", got, want)
	}
}

func TestIntegration_Store(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	table := testutil.UniqueName("hitlkit_kv_test")
	db.DropTable(t, table)

	ctx := context.Background()
	store := New(db.OpenSQL(t), WithTable(table))
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if _, err := store.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get on empty table error = %v, want ErrNotFound", err)
	}
	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	if got, err := store.Get(ctx, "k"); err != nil || got != "v2" {
		t.Errorf("Get = %q, %v; want v2", got, err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
}

func TestIntegration_Store_Tx(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	table := testutil.UniqueName("hitlkit_kv_test")
	db.DropTable(t, table)

	ctx := context.Background()
	sqlDB := db.OpenSQL(t)
	store := New(sqlDB, WithTable(table))
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := store.Set(WithTx(ctx, tx), "k", "v"); err != nil {
		t.Fatalf("Set in tx failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := store.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("rolled back write is visible: %v", err)
	}
}
