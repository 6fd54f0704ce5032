package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"energy-dashboard/internal/auth"
	"energy-dashboard/internal/eventing"
	"energy-dashboard/internal/stream/session"
)

// AttachHandler binds the live event stream to the authenticated
// identity and reports the session state. Lifecycle transitions are
// published on the bus so session-scoped state can react to them.
type AttachHandler struct {
	manager *session.Manager
	bus     eventing.EventBus
	logger  *log.Logger
}

// NewAttachHandler constructs a handler.
func NewAttachHandler(manager *session.Manager, bus eventing.EventBus, logger *log.Logger) (*AttachHandler, error) {
	if manager == nil {
		return nil, errors.New("attach handler: nil manager")
	}
	if bus == nil {
		return nil, errors.New("attach handler: nil event bus")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &AttachHandler{manager: manager, bus: bus, logger: logger}, nil
}

// ServeHTTP handles stream session routes under /api/v1/stream.
func (h *AttachHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/stream/attach" && r.Method == http.MethodPost:
		h.handleAttach(w, r)
	case r.URL.Path == "/api/v1/stream/detach" && r.Method == http.MethodPost:
		h.handleDetach(w, r)
	case r.URL.Path == "/api/v1/stream/state" && r.Method == http.MethodGet:
		h.handleState(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleAttach keys the connection on the verified token subject, not
// on anything the client sends in the body.
func (h *AttachHandler) handleAttach(w http.ResponseWriter, r *http.Request) {
	identity := auth.SubjectFromContext(r.Context())
	if identity == "" {
		http.Error(w, "no identity", http.StatusUnauthorized)
		return
	}

	conn, err := h.manager.Bind(r.Context(), identity)
	if err != nil {
		h.logger.Printf("stream attach: identity=%s error: %v", identity, err)
		http.Error(w, "attach error", http.StatusBadGateway)
		return
	}
	h.publishState(r, identity, conn.State())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"identity": identity,
		"state":    conn.State(),
	})
}

func (h *AttachHandler) handleDetach(w http.ResponseWriter, r *http.Request) {
	identity := auth.SubjectFromContext(r.Context())
	h.manager.Release()
	h.publishState(r, identity, session.StateClosed)
	h.logger.Printf("stream detach: identity=%s", identity)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AttachHandler) publishState(r *http.Request, identity string, state session.State) {
	if err := h.bus.Publish(r.Context(), eventing.SessionStateChanged{
		Identity:   identity,
		State:      string(state),
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		h.logger.Printf("stream session state publish error: %v", err)
	}
}

func (h *AttachHandler) handleState(w http.ResponseWriter) {
	resp := map[string]any{"state": session.StateIdle, "identity": ""}
	if conn := h.manager.Current(); conn != nil {
		resp["state"] = conn.State()
		resp["identity"] = conn.Identity()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
