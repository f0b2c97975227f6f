package api

import (
	"net/http"
	"time"

	"github.com/agentpatterns/hitlkit"
)

// Config holds API router configuration.
type Config struct {
	// ReadOnly rejects every write endpoint with 403.
	ReadOnly bool

	// HeartbeatInterval for comments on the event stream.
	HeartbeatInterval time.Duration

	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64

	// Logger for structured logging.
	Logger Logger
}

// Logger interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// router holds the API router state.
type router struct {
	session *hitlkit.Session
	config  *Config
	md      *markdown
}

// Defaults for zero Config fields.
const (
	DefaultHeartbeatInterval       = 15 * time.Second
	DefaultMaxBodyBytes      int64 = 1 << 20
)

// withDefaults returns a copy of cfg with unset fields filled in.
func withDefaults(cfg *Config) *Config {
	out := Config{}
	if cfg != nil {
		out = *cfg
	}
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if out.MaxBodyBytes <= 0 {
		out.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &out
}

// NewRouter creates a new API router.
func NewRouter(session *hitlkit.Session, cfg *Config) http.Handler {
	cfg = withDefaults(cfg)

	r := &router{
		session: session,
		config:  cfg,
		md:      newMarkdown(),
	}

	mux := http.NewServeMux()

	// Status
	mux.HandleFunc("GET /status", r.handleStatus)
	mux.HandleFunc("GET /events", r.handleEvents)

	// Threads
	mux.HandleFunc("GET /thread", r.handleGetThread)
	mux.HandleFunc("POST /thread/new", r.write(r.handleNewThread))
	mux.HandleFunc("POST /thread/load", r.write(r.handleLoadThread))
	mux.HandleFunc("GET /threads", r.handleListThreads)
	mux.HandleFunc("POST /threads", r.write(r.handleSaveThread))
	mux.HandleFunc("DELETE /threads/{id}", r.write(r.handleDeleteThread))

	// Messages
	mux.HandleFunc("GET /messages", r.handleListMessages)
	mux.HandleFunc("POST /messages", r.write(r.handleSendMessage))
	mux.HandleFunc("POST /messages/{id}/regenerate", r.write(r.handleRegenerate))

	// Interrupts
	mux.HandleFunc("GET /interrupt", r.handleGetInterrupt)
	mux.HandleFunc("POST /interrupt/respond", r.write(r.handleRespond))
	mux.HandleFunc("POST /interrupt/approve", r.write(r.handleApprove))
	mux.HandleFunc("POST /interrupt/cancel", r.write(r.handleCancel))

	// State
	mux.HandleFunc("GET /state", r.handleGetState)
	mux.HandleFunc("POST /state/counter/increment", r.write(r.handleIncrement))
	mux.HandleFunc("POST /state/counter/decrement", r.write(r.handleDecrement))
	mux.HandleFunc("POST /state/status", r.write(r.handleSetStatus))

	return withMiddleware(mux, cfg)
}

// write guards a handler that changes the session.
func (rt *router) write(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.config.ReadOnly {
			writeError(w, http.StatusForbidden, "read_only", "read-only mode")
			return
		}
		if rt.config.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, rt.config.MaxBodyBytes)
		}
		next(w, r)
	}
}

// withMiddleware wraps the handler with common middleware.
func withMiddleware(handler http.Handler, cfg *Config) http.Handler {
	// Add JSON content type
	handler = jsonMiddleware(handler)
	// Add error recovery
	handler = recoveryMiddleware(handler, cfg.Logger)
	return handler
}

// jsonMiddleware sets JSON content type for all responses.
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func recoveryMiddleware(next http.Handler, logger Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if logger != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				}
				http.Error(w, `{"error":{"code":"internal_error","message":"internal server error"}}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
