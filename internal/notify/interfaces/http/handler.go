package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"energy-dashboard/internal/notify"
)

// NotificationHandler serves the active notification set under
// /api/v1/notifications.
type NotificationHandler struct {
	queue *notify.Queue
}

// NewNotificationHandler constructs a handler.
func NewNotificationHandler(queue *notify.Queue) (*NotificationHandler, error) {
	if queue == nil {
		return nil, errors.New("notification handler: nil queue")
	}
	return &NotificationHandler{queue: queue}, nil
}

// ServeHTTP handles notification routes under /api/v1/notifications.
func (h *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/notifications" && r.Method == http.MethodGet {
		h.handleList(w)
		return
	}
	if strings.HasPrefix(path, "/api/v1/notifications/") && r.Method == http.MethodDelete {
		id := strings.TrimPrefix(path, "/api/v1/notifications/")
		h.handleDismiss(w, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *NotificationHandler) handleList(w http.ResponseWriter) {
	active := h.queue.Active()
	if active == nil {
		active = []notify.Notification{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(active)
}

// handleDismiss always answers 204: dismissing an already expired
// notification is not an error.
func (h *NotificationHandler) handleDismiss(w http.ResponseWriter, id string) {
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.queue.Remove(notify.ID(id))
	w.WriteHeader(http.StatusNoContent)
}
