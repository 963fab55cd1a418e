// Package livews streams session events to live observers (recruiter
// dashboards) over websocket. It is the loop's Broadcaster: each publish
// lands in the store's event log and fans out to connected observers.
package livews

import (
	"encoding/json"
	"sync"

	ws "nhooyr.io/websocket"

	"github.com/hire-genai/Hire-genAi-sub000/internal/store"
	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

// observerQueueSize bounds the per-connection send backlog. A stalled
// observer loses events past this, never the publisher's time.
const observerQueueSize = 32

// Observer is one connected watcher. The handler's writer goroutine
// drains send; Publish only ever enqueues.
type Observer struct {
	conn *ws.Conn
	send chan []byte
}

// Registry keeps the observer connections per session. Unlike the agent
// channel, any number of observers may watch a session.
type Registry struct {
	st    *store.Store
	mu    sync.Mutex
	conns map[string]map[*Observer]struct{}
}

func NewRegistry(st *store.Store) *Registry {
	return &Registry{st: st, conns: make(map[string]map[*Observer]struct{})}
}

func (r *Registry) Add(sessionID string, c *ws.Conn) *Observer {
	o := &Observer{conn: c, send: make(chan []byte, observerQueueSize)}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[sessionID]
	if !ok {
		set = make(map[*Observer]struct{})
		r.conns[sessionID] = set
	}
	set[o] = struct{}{}
	return o
}

func (r *Registry) Remove(sessionID string, o *Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.conns[sessionID]; ok {
		delete(set, o)
		if len(set) == 0 {
			delete(r.conns, sessionID)
		}
	}
}

func (r *Registry) ObserverCount(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[sessionID])
}

// Publish records the event and enqueues it for every observer. The
// session event loop calls this synchronously, so nothing here may
// block: a full observer queue drops the event for that observer only.
func (r *Registry) Publish(sessionID, typ string, payload map[string]any) {
	evt := r.st.AppendEvent(sessionID, typ, payload)
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	r.mu.Lock()
	targets := make([]*Observer, 0, len(r.conns[sessionID]))
	for o := range r.conns[sessionID] {
		targets = append(targets, o)
	}
	r.mu.Unlock()
	for _, o := range targets {
		select {
		case o.send <- data:
		default:
			metricObserverDrops.Inc()
		}
	}
	metricEventsPublished.WithLabelValues(typ).Inc()
}

// backlog returns the stored events for replay on observer connect.
func (r *Registry) backlog(sessionID string) []types.Event {
	return r.st.ListEvents(sessionID)
}
