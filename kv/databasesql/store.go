// Package databasesql provides a PostgreSQL key-value store using database/sql
// with the lib/pq driver.
package databasesql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/agentpatterns/hitlkit/kv"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// DefaultTable is the table used when none is configured.
const DefaultTable = "hitlkit_kv"

type txContextKey struct{}

// WithTx returns a new context with the given transaction.
// Store operations using the context run inside tx.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves the transaction from context, or nil if not present.
func TxFromContext(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// executor is satisfied by *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Option configures a Store.
type Option func(*Store)

// WithTable sets the table name.
func WithTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// Store implements kv.Store on a PostgreSQL table.
type Store struct {
	db    *sql.DB
	table string
}

var _ kv.Store = (*Store)(nil)

// New creates a store on db.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a database/sql handle for connString and verifies it.
func Open(ctx context.Context, connString string, opts ...Option) (*Store, error) {
	db, err := sql.Open(DriverName, connString)
	if err != nil {
		return nil, fmt.Errorf("databasesql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("databasesql: ping: %w", err)
	}
	return New(db, opts...), nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// getExecutor returns the transaction from context if present, otherwise the db.
func (s *Store) getExecutor(ctx context.Context) executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *Store) ident() string {
	return pq.QuoteIdentifier(s.table)
}

// Migrate creates the table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.ident())

	if _, err := s.getExecutor(ctx).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("databasesql: migrate: %w", err)
	}
	return nil
}

// Get implements kv.Store.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.ident())

	var value string
	err := s.getExecutor(ctx).QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("databasesql: get %q: %w", key, err)
	}
	return value, nil
}

// Set implements kv.Store.
func (s *Store) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, s.ident())

	if _, err := s.getExecutor(ctx).ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("databasesql: set %q: %w", key, err)
	}
	return nil
}

// Delete implements kv.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.ident())

	if _, err := s.getExecutor(ctx).ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("databasesql: delete %q: %w", key, err)
	}
	return nil
}
