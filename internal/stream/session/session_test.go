package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"energy-dashboard/internal/stream/classify"
)

type fakeConn struct {
	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) ReadFrame() ([]byte, error) {
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(frame []byte) {
	c.frames <- frame
}

type fakeTransport struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (t *fakeTransport) Connect(_ context.Context, _ string) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return nil, t.err
	}
	conn := newFakeConn()
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *fakeTransport) conn(index int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[index]
}

func waitState(t *testing.T, conn *Connection, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if conn.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state %s not reached, still %s", want, conn.State())
}

func TestConnectionLifecycle(t *testing.T) {
	transport := &fakeTransport{}
	conn, err := NewConnection("user-7")
	if err != nil {
		t.Fatalf("new connection: %v", err)
	}
	if conn.State() != StateIdle {
		t.Fatalf("expected idle, got %s", conn.State())
	}

	if err := conn.Open(context.Background(), transport); err != nil {
		t.Fatalf("open: %v", err)
	}
	if conn.State() != StateOpen {
		t.Fatalf("expected open, got %s", conn.State())
	}

	// Remote closure drives the terminal transition.
	transport.conn(0).Close()
	waitState(t, conn, StateClosed)

	// Closed is terminal.
	if err := conn.Open(context.Background(), transport); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestConnectionRequiresIdentity(t *testing.T) {
	if _, err := NewConnection(""); !errors.Is(err, ErrEmptyIdentity) {
		t.Fatalf("expected ErrEmptyIdentity, got %v", err)
	}
}

func TestConnectionDispatchesByChannel(t *testing.T) {
	transport := &fakeTransport{}
	conn, err := NewConnection("user-7")
	if err != nil {
		t.Fatalf("new connection: %v", err)
	}

	alerts := make(chan string, 4)
	chats := make(chan string, 4)
	if err := conn.On(classify.ChannelAlert, func(_ string, f classify.EventFrame) { alerts <- f.Message }); err != nil {
		t.Fatalf("register alert consumer: %v", err)
	}
	if err := conn.On(classify.ChannelChat, func(_ string, f classify.EventFrame) { chats <- f.Message }); err != nil {
		t.Fatalf("register chat consumer: %v", err)
	}

	if err := conn.Open(context.Background(), transport); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	fc := transport.conn(0)
	fc.push([]byte(`{"type":"sensor","message":"overload"}`))
	fc.push([]byte(`{"type":"chat","message":"hello"}`))
	fc.push([]byte(`{"type":"sensor"}`)) // unknown: silently dropped

	select {
	case msg := <-alerts:
		if msg != "overload" {
			t.Fatalf("expected alert %q, got %q", "overload", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("alert consumer never invoked")
	}
	select {
	case msg := <-chats:
		if msg != "hello" {
			t.Fatalf("expected chat %q, got %q", "hello", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("chat consumer never invoked")
	}
	select {
	case msg := <-alerts:
		t.Fatalf("unexpected extra alert %q", msg)
	case msg := <-chats:
		t.Fatalf("unexpected extra chat %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConsumerRegistrationRejectedAfterOpen(t *testing.T) {
	transport := &fakeTransport{}
	conn, err := NewConnection("user-7")
	if err != nil {
		t.Fatalf("new connection: %v", err)
	}
	if err := conn.Open(context.Background(), transport); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	err = conn.On(classify.ChannelAlert, func(string, classify.EventFrame) {})
	if !errors.Is(err, ErrNotIdle) {
		t.Fatalf("expected ErrNotIdle, got %v", err)
	}
}

func TestManagerReplacesConnectionOnIdentityChange(t *testing.T) {
	transport := &fakeTransport{}
	manager, err := NewManager(transport)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	frames := make(chan string, 16)
	manager.On(classify.ChannelAlert, func(_ string, f classify.EventFrame) { frames <- f.Message })

	connA, err := manager.Bind(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("bind a: %v", err)
	}
	connB, err := manager.Bind(context.Background(), "user-b")
	if err != nil {
		t.Fatalf("bind b: %v", err)
	}

	waitState(t, connA, StateClosed)
	if connB.State() != StateOpen {
		t.Fatalf("expected b open, got %s", connB.State())
	}
	if current := manager.Current(); current != connB {
		t.Fatal("manager must track exactly the new connection")
	}

	// Frames surfacing from A's transport after the switch must reach
	// no consumer.
	fcA := transport.conn(0)
	select {
	case fcA.frames <- []byte(`{"type":"sensor","message":"stale"}`):
	default:
	}

	fcB := transport.conn(1)
	fcB.push([]byte(`{"type":"sensor","message":"fresh"}`))

	select {
	case msg := <-frames:
		if msg != "fresh" {
			t.Fatalf("frame from the torn-down connection leaked: %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("frame from current connection never arrived")
	}
	select {
	case msg := <-frames:
		t.Fatalf("unexpected frame %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManagerBindSameOpenIdentityKeepsConnection(t *testing.T) {
	transport := &fakeTransport{}
	manager, err := NewManager(transport)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	first, err := manager.Bind(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	second, err := manager.Bind(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if first != second {
		t.Fatal("open connection for the same identity must be kept")
	}
}

func TestManagerEmptyIdentityDetaches(t *testing.T) {
	transport := &fakeTransport{}
	manager, err := NewManager(transport)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	conn, err := manager.Bind(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	detached, err := manager.Bind(context.Background(), "")
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if detached != nil {
		t.Fatal("empty identity must not create a connection")
	}
	waitState(t, conn, StateClosed)
	if manager.Current() != nil {
		t.Fatal("manager must hold no connection after detach")
	}
}

func TestManagerConnectFailure(t *testing.T) {
	transport := &fakeTransport{err: errors.New("dial refused")}
	manager, err := NewManager(transport)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := manager.Bind(context.Background(), "user-a"); err == nil {
		t.Fatal("expected bind error")
	}
	if manager.Current() != nil {
		t.Fatal("failed bind must leave no current connection")
	}
}
