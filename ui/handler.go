package ui

import (
	"net/http"

	"github.com/agentpatterns/hitlkit"
	"github.com/agentpatterns/hitlkit/ui/api"
)

// Handler returns an http.Handler serving the JSON API of one session.
//
// Usage:
//
//	http.Handle("/pattern1/", ui.Handler(session, &ui.Config{BasePath: "/pattern1"}))
func Handler(session *hitlkit.Session, cfg *Config) http.Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.applyDefaults()
	}

	// Validate configuration (panic on invalid config as this is a programmer error)
	if err := cfg.validate(); err != nil {
		panic("ui: invalid configuration: " + err.Error())
	}
	if session == nil {
		panic(ErrSessionRequired.Error())
	}

	handler := api.NewRouter(session, &api.Config{
		ReadOnly:          cfg.ReadOnly,
		HeartbeatInterval: cfg.HeartbeatInterval,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		Logger:            cfg.Logger,
	})

	if cfg.BasePath != "" {
		return http.StripPrefix(cfg.BasePath, handler)
	}
	return handler
}
