// Package pgxv5 provides a PostgreSQL key-value store using pgx/v5.
package pgxv5

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentpatterns/hitlkit/kv"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "hitlkit_kv"

// txContextKey is the context key for storing pgx.Tx
type txContextKey struct{}

// WithTx returns a new context with the given transaction.
// Store operations using the context run inside tx.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves the transaction from context, or nil if not present
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// querier is a common interface for pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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
	pool  *pgxpool.Pool
	table string
}

var _ kv.Store = (*Store)(nil)

// New creates a store on pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a pool for connString and verifies it.
func Connect(ctx context.Context, connString string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("pgxv5: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxv5: ping: %w", err)
	}
	return New(pool, opts...), nil
}

// Close closes the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// getQuerier returns the transaction from context if present, otherwise the pool
func (s *Store) getQuerier(ctx context.Context) querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *Store) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
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

	if _, err := s.getQuerier(ctx).Exec(ctx, query); err != nil {
		return fmt.Errorf("pgxv5: migrate: %w", err)
	}
	return nil
}

// Get implements kv.Store.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.ident())

	var value string
	err := s.getQuerier(ctx).QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pgxv5: get %q: %w", key, err)
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

	if _, err := s.getQuerier(ctx).Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("pgxv5: set %q: %w", key, err)
	}
	return nil
}

// Delete implements kv.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.ident())

	if _, err := s.getQuerier(ctx).Exec(ctx, query, key); err != nil {
		return fmt.Errorf("pgxv5: delete %q: %w", key, err)
	}
	return nil
}
