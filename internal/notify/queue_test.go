package notify

import (
	"testing"
	"time"
)

func waitEmpty(t *testing.T, q *Queue) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(q.Active()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("queue never drained, still %d active", len(q.Active()))
}

func TestQueueAutoExpiry(t *testing.T) {
	q := NewQueue(30 * time.Millisecond)
	defer q.Close()

	q.Push("voltage spike")
	if len(q.Active()) != 1 {
		t.Fatalf("expected 1 active, got %d", len(q.Active()))
	}
	waitEmpty(t, q)
}

func TestQueueManualDismissBeforeExpiry(t *testing.T) {
	q := NewQueue(50 * time.Millisecond)
	defer q.Close()

	id := q.Push("voltage spike")
	q.Remove(id)
	if len(q.Active()) != 0 {
		t.Fatalf("expected empty after dismiss, got %d", len(q.Active()))
	}

	// The expiry timer firing later must be harmless.
	time.Sleep(80 * time.Millisecond)
	q.Remove(id) // repeated removal is a no-op
	if len(q.Active()) != 0 {
		t.Fatal("queue must stay empty")
	}
}

func TestQueueRemoveUnknownID(t *testing.T) {
	q := NewQueue(time.Second)
	defer q.Close()

	q.Remove(ID("ntf-404")) // must not panic or error
}

func TestQueuePushOrder(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	q.Push("first")
	q.Push("second")
	q.Push("second") // duplicates are not coalesced
	q.Push("third")

	active := q.Active()
	want := []string{"first", "second", "second", "third"}
	if len(active) != len(want) {
		t.Fatalf("expected %d active, got %d", len(want), len(active))
	}
	for i, text := range want {
		if active[i].Text != text {
			t.Fatalf("position %d: expected %q, got %q", i, text, active[i].Text)
		}
	}
}

func TestQueueIDsUnique(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	seen := make(map[ID]bool)
	for i := 0; i < 10; i++ {
		id := q.Push("x")
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestQueueClosedRejectsPush(t *testing.T) {
	q := NewQueue(time.Minute)
	q.Close()
	if id := q.Push("late"); id != "" {
		t.Fatalf("closed queue must reject push, got id %s", id)
	}
}
