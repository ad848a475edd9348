package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(nil, zerolog.Nop())
}

func TestSubscribeAndDispatch(t *testing.T) {
	h := newTestHub()
	ch, cancel := h.Subscribe("alice")
	defer cancel()

	h.dispatch("alice", Event{Name: "refresh", Payload: json.RawMessage(`{"table":"meals"}`)})

	select {
	case event := <-ch:
		if event.Name != "refresh" {
			t.Errorf("event name = %q", event.Name)
		}
	case <-time.After(time.Second):
		t.Fatal("event never arrived")
	}
}

func TestDispatchIsScopedToUser(t *testing.T) {
	h := newTestHub()
	aliceCh, cancelAlice := h.Subscribe("alice")
	defer cancelAlice()
	_, cancelBob := h.Subscribe("bob")
	defer cancelBob()

	h.dispatch("bob", Event{Name: "refresh"})

	select {
	case event := <-aliceCh:
		t.Errorf("alice received bob's event: %v", event)
	default:
	}
}

func TestCancelUnsubscribes(t *testing.T) {
	h := newTestHub()
	ch, cancel := h.Subscribe("alice")

	if n := h.SubscriberCount("alice"); n != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", n)
	}

	cancel()
	if n := h.SubscriberCount("alice"); n != 0 {
		t.Errorf("SubscriberCount = %d after cancel, want 0", n)
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed after cancel")
	}

	// A second cancel must be safe.
	cancel()
}

func TestDispatchDropsWhenFull(t *testing.T) {
	h := newTestHub()
	_, cancel := h.Subscribe("alice")
	defer cancel()

	// Channel buffer is 8; pushing more must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			h.dispatch("alice", Event{Name: "refresh"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on full subscriber")
	}
}
