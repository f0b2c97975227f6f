// Package testutil provides test utilities for hitlkit
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// TestDB wraps a PostgreSQL connection pool for testing
type TestDB struct {
	Pool *pgxpool.Pool
	URL  string
}

// NewTestDB creates a test database connection from DATABASE_URL env var.
// The test is skipped if DATABASE_URL is not set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	return &TestDB{Pool: pool, URL: dbURL}
}

// Close closes the database connection
func (db *TestDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// OpenSQL opens a database/sql handle on the same database.
func (db *TestDB) OpenSQL(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("postgres", db.URL)
	if err != nil {
		t.Fatalf("Failed to open database/sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

// DropTable drops table when the test finishes. It uses its own connection
// because the pool may already be closed by then.
func (db *TestDB) DropTable(t *testing.T, table string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		conn, err := pgx.Connect(ctx, db.URL)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close(ctx) }()
		_, _ = conn.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize())
	})
}

// UniqueName returns a name with a random suffix, usable as a table name or key prefix.
func UniqueName(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

// RequireIntegration skips the test if not running integration tests
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}
}

// RequireRedis skips the test if REDIS_URL is not set.
func RequireRedis(t *testing.T) {
	t.Helper()
	if os.Getenv("REDIS_URL") == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
}

// NewRedisClient connects to REDIS_URL, skipping the test if it is not set.
func NewRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	RequireRedis(t)

	opts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		t.Fatalf("Failed to parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("Failed to ping redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
