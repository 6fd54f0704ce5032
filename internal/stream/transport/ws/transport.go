// Package ws is the WebSocket transport behind the session layer. It
// dials the platform's per-identity stream endpoint and surfaces raw
// frames; reconnection policy lives above it, in the session model.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"energy-dashboard/internal/stream/session"
)

const connectPath = "/ws/connect/"

// Transport dials the stream endpoint for an identity.
type Transport struct {
	baseURL string
	dialer  *websocket.Dialer
}

// NewTransport constructs a transport for the stream base URL
// (ws:// or wss://).
func NewTransport(baseURL string) (*Transport, error) {
	if baseURL == "" {
		return nil, errors.New("ws: empty base url")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ws: parse base url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, fmt.Errorf("ws: unsupported scheme %q", parsed.Scheme)
	}
	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 45 * time.Second,
		},
	}, nil
}

// Connect implements session.Transport.
func (t *Transport) Connect(ctx context.Context, identity string) (session.Conn, error) {
	if identity == "" {
		return nil, errors.New("ws: empty identity")
	}
	endpoint := t.baseURL + connectPath + url.PathEscape(identity)
	conn, _, err := t.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", endpoint, err)
	}
	return &wsConn{conn: conn}, nil
}

// wsConn adapts a gorilla connection to the session Conn contract.
type wsConn struct {
	conn *websocket.Conn
}

// ReadFrame returns the next frame in receipt order.
func (c *wsConn) ReadFrame() ([]byte, error) {
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return message, nil
}

// Close releases the underlying connection.
func (c *wsConn) Close() error {
	return c.conn.Close()
}
