package livews

import (
	"testing"
	"time"

	"github.com/hire-genai/Hire-genAi-sub000/internal/store"
	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

func TestPublishLandsInStore(t *testing.T) {
	st := store.New()
	st.CreateSession(&types.Session{ID: "s1"})
	reg := NewRegistry(st)

	reg.Publish("s1", "utterance", map[string]any{"speaker": "candidate", "text": "hi"})
	reg.Publish("s1", "mic", map[string]any{"enabled": false})

	evts := st.ListEvents("s1")
	if len(evts) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(evts))
	}
	if evts[0].Type != "utterance" || evts[1].Type != "mic" {
		t.Fatalf("unexpected event order: %s, %s", evts[0].Type, evts[1].Type)
	}
}

func TestBacklogMirrorsStore(t *testing.T) {
	st := store.New()
	st.CreateSession(&types.Session{ID: "s1"})
	reg := NewRegistry(st)
	st.AppendEvent("s1", "earlier", nil)
	reg.Publish("s1", "later", nil)

	bl := reg.backlog("s1")
	if len(bl) != 2 || bl[0].Type != "earlier" {
		t.Fatalf("backlog should replay stored events in order, got %+v", bl)
	}
}

func TestObserverCountEmpty(t *testing.T) {
	reg := NewRegistry(store.New())
	if reg.ObserverCount("nope") != 0 {
		t.Fatalf("expected zero observers for unknown session")
	}
}

func TestPublishNeverBlocksOnStalledObserver(t *testing.T) {
	st := store.New()
	st.CreateSession(&types.Session{ID: "s1"})
	reg := NewRegistry(st)
	// Registered but never drained: the queue fills and stays full.
	o := reg.Add("s1", nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			reg.Publish("s1", "utterance", map[string]any{"i": i})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a stalled observer")
	}

	if got := len(o.send); got != observerQueueSize {
		t.Fatalf("expected a full queue of %d, got %d", observerQueueSize, got)
	}
	if got := len(st.ListEvents("s1")); got != 100 {
		t.Fatalf("store append must stay synchronous, got %d events", got)
	}
}

func TestRemoveStopsDelivery(t *testing.T) {
	st := store.New()
	st.CreateSession(&types.Session{ID: "s1"})
	reg := NewRegistry(st)
	o := reg.Add("s1", nil)
	reg.Remove("s1", o)

	reg.Publish("s1", "utterance", nil)
	if len(o.send) != 0 {
		t.Fatalf("removed observer must not receive events")
	}
	if reg.ObserverCount("s1") != 0 {
		t.Fatalf("expected zero observers after remove")
	}
}
