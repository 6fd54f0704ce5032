// Package session owns the lifecycle of one live event connection per
// identity and routes every inbound frame to its logical channel.
package session

import (
	"context"
	"errors"
	"sync"

	"energy-dashboard/internal/observability/metrics"
	"energy-dashboard/internal/stream/classify"
)

// State is the lifecycle state of a connection.
type State string

const (
	StateIdle       State = "IDLE"
	StateConnecting State = "CONNECTING"
	StateOpen       State = "OPEN"
	StateClosed     State = "CLOSED"
)

var (
	// ErrEmptyIdentity is returned when a connection is constructed
	// without an identity.
	ErrEmptyIdentity = errors.New("session: empty identity")
	// ErrNotIdle is returned when Open is called twice on the same
	// connection. Closed is terminal: reconnects are new instances.
	ErrNotIdle = errors.New("session: connection is not idle")
	// ErrClosed is returned when the connection was closed while
	// establishment was still in flight.
	ErrClosed = errors.New("session: connection closed")
)

// Conn is an established transport connection delivering raw frames
// in receipt order.
type Conn interface {
	ReadFrame() ([]byte, error)
	Close() error
}

// Transport establishes connections. It is an injected capability;
// the session layer never dials on its own.
type Transport interface {
	Connect(ctx context.Context, identity string) (Conn, error)
}

// Consumer receives classified frames for one channel, tagged with the
// identity whose stream delivered them.
type Consumer func(identity string, frame classify.EventFrame)

// Connection is one identity-scoped live event stream.
//
// Lifecycle: Idle -> Connecting -> Open -> Closed, with Closed
// reachable from any state and terminal. Consumers are registered
// while Idle and unregistered synchronously when teardown begins, so
// no frame is dispatched into a released consumer.
type Connection struct {
	identity string

	mu        sync.Mutex
	state     State
	conn      Conn
	consumers map[classify.Channel]Consumer

	done     chan struct{}
	doneOnce sync.Once
}

// NewConnection constructs an idle connection for the identity.
func NewConnection(identity string) (*Connection, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}
	return &Connection{
		identity:  identity,
		state:     StateIdle,
		consumers: make(map[classify.Channel]Consumer),
		done:      make(chan struct{}),
	}, nil
}

// Identity returns the identity that keys this connection.
func (c *Connection) Identity() string { return c.identity }

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the connection reaches Closed.
func (c *Connection) Done() <-chan struct{} { return c.done }

// On registers the consumer for a channel. At most one consumer per
// channel; registration is only accepted while Idle.
func (c *Connection) On(channel classify.Channel, consumer Consumer) error {
	if consumer == nil {
		return errors.New("session: nil consumer")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrNotIdle
	}
	c.consumers[channel] = consumer
	return nil
}

// Open establishes the connection over the transport and starts the
// receive loop. It transitions Idle -> Connecting -> Open.
func (c *Connection) Open(ctx context.Context, transport Transport) error {
	if transport == nil {
		return errors.New("session: nil transport")
	}

	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		if state == StateClosed {
			return ErrClosed
		}
		return ErrNotIdle
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := transport.Connect(ctx, c.identity)
	if err != nil {
		c.Close()
		return err
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Closed while the dial was in flight.
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.state = StateOpen
	c.conn = conn
	c.mu.Unlock()

	metrics.SessionOpened()
	go c.readLoop(conn)
	return nil
}

// Close tears the connection down. The inbound handler is unregistered
// under the same lock that flips the state, before the transport
// resource is released, so no frame received afterwards reaches a
// consumer. Close is idempotent.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	wasOpen := c.state == StateOpen
	c.state = StateClosed
	c.consumers = nil
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.doneOnce.Do(func() { close(c.done) })
	if wasOpen {
		metrics.SessionClosed()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// readLoop delivers frames in receipt order until the transport
// reports closure, then transitions to Closed.
func (c *Connection) readLoop(conn Conn) {
	defer c.Close()
	for {
		raw, err := conn.ReadFrame()
		if err != nil {
			return
		}
		c.dispatch(raw)
	}
}

// dispatch classifies one frame and hands it to the channel consumer.
// Unknown frames and frames without a registered consumer are dropped
// with no observable effect beyond a metric.
//
// The lock is held across the consumer call: a concurrent Close blocks
// until the in-flight dispatch finishes, and nothing is classified
// once teardown has begun. Consumers must not call back into the
// connection.
func (c *Connection) dispatch(raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return
	}

	frame := classify.Classify(raw)
	metrics.ObserveFrame(string(frame.Channel))
	if frame.Channel == classify.ChannelUnknown {
		metrics.FrameDropped("unknown_channel")
		return
	}
	consumer := c.consumers[frame.Channel]
	if consumer == nil {
		metrics.FrameDropped("no_consumer")
		return
	}
	consumer(c.identity, frame)
}
