// Package ui serves a hitlkit session over HTTP.
//
// The handler exposes the session's chat, interrupt, thread and state
// operations as JSON endpoints (see package api for the route list).
//
// # Quick Start
//
//	session, _ := hitlkit.New(ctx, agent, hitlkit.Config{
//	    Namespace: hitlkit.PatternDirect.Namespace,
//	    Store:     kv.NewMemory(),
//	})
//
//	mux := http.NewServeMux()
//	mux.Handle("/pattern1/", ui.Handler(session, &ui.Config{BasePath: "/pattern1"}))
//
//	http.ListenAndServe(":8080", mux)
//
// # Configuration
//
//	cfg := &ui.Config{
//	    BasePath:          "/pattern1",
//	    ReadOnly:          false, // reject writes if true
//	    HeartbeatInterval: 15 * time.Second,
//	}
//
// # Adding Middleware
//
// Wrap handlers externally using standard Go patterns:
//
//	handler := authMiddleware(ui.Handler(session, cfg))
//	http.Handle("/pattern1/", handler)
package ui
