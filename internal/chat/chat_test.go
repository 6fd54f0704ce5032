package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogAppendOrderAndClear(t *testing.T) {
	log := NewLog()
	log.Append(SenderLocal, "hello")
	log.Append(SenderRemote, "[Admin]: hi")
	log.Append(SenderError, "send failed")

	messages := log.Messages()
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Sender != SenderLocal || messages[1].Sender != SenderRemote || messages[2].Sender != SenderError {
		t.Fatalf("unexpected order: %+v", messages)
	}

	log.Clear()
	if len(log.Messages()) != 0 {
		t.Fatal("log must be empty after clear")
	}
}

func TestClientSendPayload(t *testing.T) {
	received := make(chan sendRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload sendRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Send(context.Background(), 42, "need help", false); err != nil {
		t.Fatalf("send: %v", err)
	}

	payload := <-received
	if payload.SenderID != 42 {
		t.Fatalf("expected sender_id 42, got %d", payload.SenderID)
	}
	if payload.Message != "need help" {
		t.Fatalf("expected message %q, got %q", "need help", payload.Message)
	}
	if payload.IsAdmin {
		t.Fatal("expected is_admin false")
	}
}

func TestClientSendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Send(context.Background(), 1, "hi", true); err == nil {
		t.Fatal("expected error for rejected send")
	}
}

func TestClientRejectsEmptyMessage(t *testing.T) {
	client, err := NewClient("http://localhost:1")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Send(context.Background(), 1, "", false); err == nil {
		t.Fatal("expected error for empty message")
	}
}
