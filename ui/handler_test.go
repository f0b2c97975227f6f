package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentpatterns/hitlkit"
	"github.com/agentpatterns/hitlkit/internal/echoagent"
	"github.com/agentpatterns/hitlkit/kv"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", *DefaultConfig(), false},
		{"base path", Config{BasePath: "/pattern1", HeartbeatInterval: time.Second, MaxBodyBytes: 1}, false},
		{"relative base path", Config{BasePath: "pattern1", HeartbeatInterval: time.Second, MaxBodyBytes: 1}, true},
		{"trailing slash", Config{BasePath: "/pattern1/", HeartbeatInterval: time.Second, MaxBodyBytes: 1}, true},
		{"short heartbeat", Config{HeartbeatInterval: time.Millisecond, MaxBodyBytes: 1}, true},
		{"negative body limit", Config{HeartbeatInterval: time.Second, MaxBodyBytes: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	if cfg.HeartbeatInterval != DefaultHeartbeatInterval || cfg.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("applyDefaults() = %+v", cfg)
	}
}

func TestHandler_BasePath(t *testing.T) {
	session, err := hitlkit.New(context.Background(), echoagent.New(), hitlkit.Config{
		Namespace: hitlkit.PatternStreaming.Namespace,
		Store:     kv.NewMemory(),
	})
	if err != nil {
		t.Fatalf("hitlkit.New() error = %v", err)
	}
	defer session.Close()

	h := Handler(session, &Config{BasePath: "/pattern3"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pattern3/status", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /pattern3/status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /status = %d, want 404", rec.Code)
	}
}

func TestHandler_Panics(t *testing.T) {
	t.Run("nil session", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic, got none")
			}
		}()
		Handler(nil, nil)
	})

	t.Run("invalid config", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic, got none")
			}
		}()
		Handler(nil, &Config{BasePath: "bad"})
	})
}
