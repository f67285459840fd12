package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return Event{}
}

// mustNoEvent asserts that no event of the given kind is pending on the channel.
func mustNoEvent(t *testing.T, ch <-chan Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				t.Fatalf("unexpected event received: %+v", ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// hubSync runs fn on the hub goroutine and waits for it, acting as a barrier
// so tests can inspect hub-owned state at a quiescent point.
func hubSync(t *testing.T, h *Hub, fn func()) {
	t.Helper()

	done := make(chan struct{})
	if !h.do(func() {
		fn()
		close(done)
	}) {
		t.Fatal("hub stopped")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub operation timed out")
	}
}
