package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/agentpatterns/hitlkit"
	"github.com/agentpatterns/hitlkit/hooks"
	"github.com/agentpatterns/hitlkit/internal/echoagent"
	"github.com/agentpatterns/hitlkit/kv"
	"github.com/agentpatterns/hitlkit/ui"
)

func runServe(args []string) error {
	env := storeOptionsFromEnv()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	kind := fs.String("store", env.Kind, "thread store: memory, file, postgres, pgsql or redis")
	file := fs.String("store-file", env.File, "path of the file store")
	readOnly := fs.Bool("read-only", false, "reject write requests")
	verbose := fs.Bool("verbose", false, "debug logging and verbose hooks")
	fs.Parse(args)

	env.Kind = *kind
	env.File = *file

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, env)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := newMetrics()
	registry := hooks.NewRegistry()
	registry.Register(hooks.NewLoggingHooks(log.New(os.Stderr, "", log.LstdFlags)))
	registry.Register(hooks.NewMetricsHooks(metrics.record))
	if *verbose {
		registry.Register(hooks.NewVerboseLoggingHooks(log.New(os.Stderr, "", log.LstdFlags)))
	}

	mux := http.NewServeMux()
	var sessions []*hitlkit.Session
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()

	for _, p := range hitlkit.Patterns() {
		s, err := newPatternSession(ctx, p, store, registry, logger)
		if err != nil {
			return fmt.Errorf("%s: %w", p.ID, err)
		}
		sessions = append(sessions, s)

		base := "/" + p.ID
		mux.Handle(base+"/", ui.Handler(s, &ui.Config{
			BasePath: base,
			ReadOnly: *readOnly,
			Logger:   logger.With("pattern", p.ID),
		}))
	}

	mux.HandleFunc("GET /patterns", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(hitlkit.Patterns())
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(metrics.snapshot())
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", *addr, "store", env.Kind)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// newPatternSession creates the scripted agent and session of one pattern.
func newPatternSession(ctx context.Context, p hitlkit.Pattern, store kv.Store, registry *hooks.Registry, logger *slog.Logger) (*hitlkit.Session, error) {
	agent := echoagent.New(echoagent.WithID(p.ID))
	return hitlkit.New(ctx, agent, hitlkit.Config{
		Namespace: p.Namespace,
		Store:     store,
	},
		hitlkit.WithLogger(logger.With("namespace", p.Namespace)),
		hitlkit.WithHooks(registry),
	)
}

// metrics accumulates hook metrics by name and tags.
type metrics struct {
	mu     sync.Mutex
	values map[string]float64
}

func newMetrics() *metrics {
	return &metrics{values: make(map[string]float64)}
}

func (m *metrics) record(name string, value float64, tags map[string]string) {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		fmt.Fprintf(&b, ",%s=%s", k, tags[k])
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[b.String()] += value
}

func (m *metrics) snapshot() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
