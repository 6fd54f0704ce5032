// Package notify implements the ephemeral notification mailbox: each
// accepted alert stays visible for a fixed lifetime, then evicts
// itself.
package notify

import (
	"fmt"
	"sync"
	"time"

	"energy-dashboard/internal/observability/metrics"
)

// DefaultLifetime matches the dashboard's toast auto-close.
const DefaultLifetime = 5 * time.Second

// ID identifies one notification.
type ID string

// Notification is one visible alert entry.
type Notification struct {
	ID        ID        `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// entry pairs a notification with its cancellable expiry timer, so
// cancellation and firing are both state transitions on the same
// record.
type entry struct {
	notification Notification
	timer        *time.Timer
}

// Queue is a time-bounded mailbox. Entries render in push order;
// duplicates are not coalesced. A queue is owned by the session that
// created it.
type Queue struct {
	lifetime time.Duration

	mu      sync.Mutex
	seq     int64
	entries []*entry
	index   map[ID]*entry
	closed  bool
}

// NewQueue constructs a queue. A non-positive lifetime falls back to
// the default.
func NewQueue(lifetime time.Duration) *Queue {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Queue{
		lifetime: lifetime,
		index:    make(map[ID]*entry),
	}
}

// Push accepts a notification and schedules its automatic removal
// after the queue lifetime, measured from acceptance.
func (q *Queue) Push(text string) ID {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ""
	}

	q.seq++
	id := ID(fmt.Sprintf("ntf-%d", q.seq))
	e := &entry{
		notification: Notification{ID: id, Text: text, CreatedAt: time.Now()},
	}
	e.timer = time.AfterFunc(q.lifetime, func() { q.Remove(id) })
	q.entries = append(q.entries, e)
	q.index[id] = e

	metrics.NotificationPushed()
	return id
}

// Remove dismisses a notification. It is idempotent: removing an
// already-removed or unknown id is a no-op, which also absorbs the
// race between manual dismissal and the expiry timer firing.
func (q *Queue) Remove(id ID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.index[id]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(q.index, id)
	for i, candidate := range q.entries {
		if candidate == e {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	metrics.NotificationRemoved()
}

// Active returns the visible notifications in push order.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Notification, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e.notification)
	}
	return out
}

// Close cancels all pending expiry timers and empties the queue.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, e := range q.entries {
		e.timer.Stop()
		metrics.NotificationRemoved()
	}
	q.entries = nil
	q.index = make(map[ID]*entry)
}
