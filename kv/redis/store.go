// Package redis provides a key-value store on Redis using go-redis/v9.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentpatterns/hitlkit/kv"
)

// DefaultPrefix is prepended to every key when no prefix is configured.
const DefaultPrefix = "hitlkit:"

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix. An empty prefix stores keys unchanged.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// Store implements kv.Store on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

var _ kv.Store = (*Store)(nil)

// New creates a store on client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect parses redisURL, connects, and verifies the connection.
func Connect(ctx context.Context, redisURL string, opts ...Option) (*Store, error) {
	url := strings.TrimSpace(redisURL)
	if url == "" {
		return nil, errors.New("redis: url is required")
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(client, opts...), nil
}

// Close closes the client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Key returns the Redis key used for key.
func (s *Store) Key(key string) string {
	return s.prefix + key
}

// Get implements kv.Store.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %q: %w", key, err)
	}
	return value, nil
}

// Set implements kv.Store. Values do not expire.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

// Delete implements kv.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("redis: delete %q: %w", key, err)
	}
	return nil
}
