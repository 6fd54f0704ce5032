package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"energy-dashboard/internal/observability/metrics"
)

// Client posts chat replies to the collaborator chat endpoint. The
// reply path is request/response; it never rides the event stream.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// sendRequest is the collaborator wire format.
type sendRequest struct {
	SenderID int64  `json:"sender_id"`
	Message  string `json:"message"`
	IsAdmin  bool   `json:"is_admin"`
}

// NewClient constructs a client for the chat send endpoint.
func NewClient(endpoint string) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("chat: empty endpoint")
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send posts one message. The response body carries nothing the core
// consumes; only success or failure matters, and a failure is the
// caller's to surface inline.
func (c *Client) Send(ctx context.Context, senderID int64, message string, isAdmin bool) error {
	if message == "" {
		return errors.New("chat: empty message")
	}

	body, err := json.Marshal(sendRequest{SenderID: senderID, Message: message, IsAdmin: isAdmin})
	if err != nil {
		return fmt.Errorf("chat: marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chat: build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveChatSend(metrics.ResultError)
		return fmt.Errorf("chat: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ObserveChatSend(metrics.ResultError)
		return fmt.Errorf("chat: send rejected with status %d", resp.StatusCode)
	}
	metrics.ObserveChatSend(metrics.ResultSuccess)
	return nil
}
