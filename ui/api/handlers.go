package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agentpatterns/hitlkit"
	"github.com/agentpatterns/hitlkit/interrupt"
	"github.com/agentpatterns/hitlkit/streaming"
	"github.com/agentpatterns/hitlkit/types"
)

// Response wraps all API responses.
type Response struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageView is a history entry with its rendered HTML.
type MessageView struct {
	ID      string     `json:"id"`
	Role    types.Role `json:"role"`
	Content string     `json:"content"`
	HTML    string     `json:"html"`
}

// InterruptView describes the interrupt reconciler for the UI.
type InterruptView struct {
	Phase  interrupt.Phase         `json:"phase"`
	Prompt *interrupt.Presentation `json:"prompt,omitempty"`
}

// ThreadView carries the active thread id.
type ThreadView struct {
	ThreadID string `json:"threadId"`
}

// EventView is one agent event on the event stream.
type EventView struct {
	Type  streaming.EventType `json:"type"`
	Event streaming.Event     `json:"event"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Error: &APIError{Code: code, Message: message},
	})
}

// writeSessionError maps a session error to a status and code.
func (rt *router) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hitlkit.ErrEmptyMessage),
		errors.Is(err, hitlkit.ErrEmptyThreadID),
		errors.Is(err, hitlkit.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, hitlkit.ErrNoInterrupt):
		writeError(w, http.StatusConflict, "no_interrupt", "no interrupt is waiting for a response")
	case errors.Is(err, hitlkit.ErrNotApproval):
		writeError(w, http.StatusConflict, "not_approval", "the interrupt expects a text response")
	case errors.Is(err, hitlkit.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, hitlkit.ErrSessionClosed):
		writeError(w, http.StatusServiceUnavailable, "session_closed", "session closed")
	case errors.Is(err, hitlkit.ErrStorageError):
		rt.logError("storage failure", err)
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
	default:
		rt.logError("agent failure", err)
		writeError(w, http.StatusBadGateway, "agent_error", err.Error())
	}
}

func (rt *router) logError(msg string, err error) {
	if rt.config.Logger != nil {
		rt.config.Logger.Error(msg, "error", err)
	}
}

// decodeBody decodes the JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return false
	}
	return true
}

func (rt *router) messageViews() []MessageView {
	messages := rt.session.Messages()
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, MessageView{
			ID:      m.ID,
			Role:    m.Role,
			Content: m.Content,
			HTML:    rt.md.render(m.Content),
		})
	}
	return views
}

// Status handlers

func (rt *router) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.session.Status(r.Context()))
}

func (rt *router) handleEvents(w http.ResponseWriter, r *http.Request) {
	agent := rt.session.Agent()
	if agent == nil {
		writeError(w, http.StatusServiceUnavailable, "no_agent", "no agent connected")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "sse_not_supported", "SSE not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Events are delivered on the goroutine running the agent; slow
	// clients drop events rather than block the run.
	events := make(chan streaming.Event, 64)
	unsubscribe := agent.Subscribe(func(e streaming.Event) {
		select {
		case events <- e:
		default:
		}
	})
	defer unsubscribe()

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(rt.config.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case e := <-events:
			data, err := json.Marshal(EventView{Type: e.Type(), Event: e})
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type(), data)
			flusher.Flush()
		}
	}
}

// Thread handlers

func (rt *router) handleGetThread(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ThreadView{ThreadID: rt.session.ThreadID(r.Context())})
}

func (rt *router) handleNewThread(w http.ResponseWriter, r *http.Request) {
	id, err := rt.session.NewThread(r.Context())
	if err != nil {
		rt.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ThreadView{ThreadID: id})
}

func (rt *router) handleLoadThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := rt.session.LoadThread(r.Context(), req.ID); err != nil {
		rt.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ThreadView{ThreadID: rt.session.ThreadID(r.Context())})
}

func (rt *router) handleListThreads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.session.SavedThreads(r.Context()))
}

func (rt *router) handleSaveThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	rec, err := rt.session.SaveThread(r.Context(), req.Name)
	if err != nil {
		rt.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (rt *router) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	removed, err := rt.session.DeleteSavedThread(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeSessionError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not_found", "saved thread not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Message handlers

func (rt *router) handleListMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.messageViews())
}

func (rt *router) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := rt.session.Send(r.Context(), req.Content); err != nil {
		rt.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.messageViews())
}

func (rt *router) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if err := rt.session.Regenerate(r.Context(), r.PathValue("id")); err != nil {
		rt.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.messageViews())
}

// Interrupt handlers

func (rt *router) interruptView() InterruptView {
	view := InterruptView{Phase: rt.session.InterruptPhase()}
	if p, ok := rt.session.Prompt(); ok {
		view.Prompt = &p
	}
	return view
}

func (rt *router) handleGetInterrupt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.interruptView())
}

func (rt *router) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Response string `json:"response"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rt.answer(w, func() error { return rt.session.Respond(r.Context(), req.Response) })
}

func (rt *router) handleApprove(w http.ResponseWriter, r *http.Request) {
	rt.answer(w, func() error { return rt.session.Approve(r.Context()) })
}

func (rt *router) handleCancel(w http.ResponseWriter, r *http.Request) {
	rt.answer(w, func() error { return rt.session.Cancel(r.Context()) })
}

func (rt *router) answer(w http.ResponseWriter, send func() error) {
	if err := send(); err != nil {
		rt.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.interruptView())
}

// State handlers

func (rt *router) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.session.State())
}

func (rt *router) handleIncrement(w http.ResponseWriter, r *http.Request) {
	rt.updateState(w, rt.session.IncrementCounter)
}

func (rt *router) handleDecrement(w http.ResponseWriter, r *http.Request) {
	rt.updateState(w, rt.session.DecrementCounter)
}

func (rt *router) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rt.updateState(w, func() (hitlkit.AgentState, error) { return rt.session.SetStatus(req.Status) })
}

func (rt *router) updateState(w http.ResponseWriter, update func() (hitlkit.AgentState, error)) {
	state, err := update()
	if err != nil {
		rt.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
