package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agentpatterns/hitlkit/kv"
	"github.com/agentpatterns/hitlkit/kv/databasesql"
	"github.com/agentpatterns/hitlkit/kv/pgxv5"
	kvredis "github.com/agentpatterns/hitlkit/kv/redis"
)

// Store backends selectable on the command line.
const (
	storeMemory   = "memory"
	storeFile     = "file"
	storePostgres = "postgres"
	storePGSQL    = "pgsql"
	storeRedis    = "redis"
)

const defaultStoreFile = "hitl-threads.json"

// storeOptions selects and configures the thread store.
type storeOptions struct {
	Kind        string
	File        string
	DatabaseURL string
	RedisURL    string
	Table       string
}

// storeOptionsFromEnv returns options filled from the environment.
func storeOptionsFromEnv() storeOptions {
	kind := strings.TrimSpace(os.Getenv("HITL_STORE"))
	if kind == "" {
		kind = storeMemory
	}
	file := strings.TrimSpace(os.Getenv("HITL_STORE_FILE"))
	if file == "" {
		file = defaultStoreFile
	}
	return storeOptions{
		Kind:        kind,
		File:        file,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Table:       pgxv5.DefaultTable,
	}
}

// openStore opens the selected store and returns it with its close function.
func openStore(ctx context.Context, opts storeOptions) (kv.Store, func(), error) {
	noop := func() {}

	switch strings.ToLower(opts.Kind) {
	case storeMemory:
		return kv.NewMemory(), noop, nil

	case storeFile:
		s, err := kv.OpenFile(opts.File)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case storePostgres:
		if opts.DatabaseURL == "" {
			return nil, nil, errors.New("postgres store: DATABASE_URL is required")
		}
		s, err := pgxv5.Connect(ctx, opts.DatabaseURL, pgxv5.WithTable(opts.Table))
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return s, s.Close, nil

	case storePGSQL:
		if opts.DatabaseURL == "" {
			return nil, nil, errors.New("pgsql store: DATABASE_URL is required")
		}
		s, err := databasesql.Open(ctx, opts.DatabaseURL, databasesql.WithTable(opts.Table))
		if err != nil {
			return nil, nil, fmt.Errorf("pgsql store: %w", err)
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("pgsql store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil

	case storeRedis:
		s, err := kvredis.Connect(ctx, opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q (want memory, file, postgres, pgsql or redis)", opts.Kind)
	}
}
