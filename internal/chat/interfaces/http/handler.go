package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"energy-dashboard/internal/auth"
	"energy-dashboard/internal/chat"
)

// ChatHandler serves the conversation log and relays outbound messages
// to the support endpoint.
type ChatHandler struct {
	log    *chat.Log
	client *chat.Client
	logger *log.Logger
}

// NewChatHandler constructs a handler.
func NewChatHandler(conversation *chat.Log, client *chat.Client, logger *log.Logger) (*ChatHandler, error) {
	if conversation == nil {
		return nil, errors.New("chat handler: nil log")
	}
	if client == nil {
		return nil, errors.New("chat handler: nil client")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ChatHandler{log: conversation, client: client, logger: logger}, nil
}

// ServeHTTP handles chat routes under /api/v1/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/chat/messages" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w)
			return
		case http.MethodDelete:
			h.log.Clear()
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	if path == "/api/v1/chat/send" && r.Method == http.MethodPost {
		h.handleSend(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *ChatHandler) handleList(w http.ResponseWriter) {
	messages := h.log.Messages()
	if messages == nil {
		messages = []chat.Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(messages)
}

// handleSend appends the local message first, then relays it. A relay
// failure leaves an error entry in the log so the conversation shows
// the delivery gap.
func (h *ChatHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SenderID int64  `json:"sender_id"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}

	isAdmin := auth.RoleFromContext(r.Context()) == auth.RoleAdmin
	h.log.Append(chat.SenderLocal, req.Message)

	if err := h.client.Send(r.Context(), req.SenderID, req.Message, isAdmin); err != nil {
		h.logger.Printf("chat send: relay error: %v", err)
		h.log.Append(chat.SenderError, "message could not be delivered")
		http.Error(w, "relay error", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "sent"})
}
