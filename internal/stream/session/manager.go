package session

import (
	"context"
	"errors"
	"sync"

	"energy-dashboard/internal/stream/classify"
)

// Manager keeps at most one live connection at a time, keyed by
// identity. Binding a new identity tears down the previous connection
// before the new one is created; binding an empty identity is a
// detach.
type Manager struct {
	transport Transport

	mu        sync.Mutex
	consumers map[classify.Channel]Consumer
	current   *Connection
}

// NewManager constructs a manager over the transport.
func NewManager(transport Transport) (*Manager, error) {
	if transport == nil {
		return nil, errors.New("session: nil transport")
	}
	return &Manager{
		transport: transport,
		consumers: make(map[classify.Channel]Consumer),
	}, nil
}

// On registers the consumer used for a channel on every connection the
// manager creates. At most one consumer per channel; later
// registrations replace earlier ones and apply to future connections.
func (m *Manager) On(channel classify.Channel, consumer Consumer) {
	if consumer == nil {
		return
	}
	m.mu.Lock()
	m.consumers[channel] = consumer
	m.mu.Unlock()
}

// Bind ensures a live connection for the identity.
//
// An empty identity closes any current connection and creates none.
// If the current connection is open for the same identity it is kept.
// Otherwise the previous connection is closed first, then a brand-new
// connection is constructed and opened; Closed is terminal, so a
// returning identity always gets a fresh instance.
func (m *Manager) Bind(ctx context.Context, identity string) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if identity == "" {
		m.closeCurrentLocked()
		return nil, nil
	}

	if m.current != nil && m.current.Identity() == identity && m.current.State() == StateOpen {
		return m.current, nil
	}

	m.closeCurrentLocked()

	conn, err := NewConnection(identity)
	if err != nil {
		return nil, err
	}
	for channel, consumer := range m.consumers {
		if err := conn.On(channel, consumer); err != nil {
			return nil, err
		}
	}
	if err := conn.Open(ctx, m.transport); err != nil {
		return nil, err
	}
	m.current = conn
	return conn, nil
}

// Release closes the current connection, if any.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCurrentLocked()
}

// Current returns the current connection or nil.
func (m *Manager) Current() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) closeCurrentLocked() {
	if m.current == nil {
		return
	}
	_ = m.current.Close()
	m.current = nil
}
