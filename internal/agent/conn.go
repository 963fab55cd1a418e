// Package agent maintains the duplex websocket channel to the
// conversational agent: typed inbound events and queued outbound control
// instructions. The connection reconnects with backoff and a failure
// circuit; instructions that could not be sent stay queued and go out on
// the next available channel, so the state machine upstream is never
// blocked by a transport hiccup.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

type Config struct {
	URL          string
	ChannelToken string
	// SocketMaxAge rotates long-lived connections; zero disables.
	SocketMaxAge time.Duration
}

type Conn struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg Config

	// Events emits parsed inbound events plus locally synthesized
	// connection_state transitions.
	Events chan Event

	mu      sync.Mutex
	ws      *websocket.Conn
	pending []outbound
	kick    chan struct{}

	fails   []time.Time
	circuit time.Time
}

func Connect(parent context.Context, cfg Config) *Conn {
	ctx, cancel := context.WithCancel(parent)
	c := &Conn{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		Events: make(chan Event, 64),
		kick:   make(chan struct{}, 1),
	}
	go c.run()
	return c
}

func (c *Conn) Close() { c.cancel() }

// SendInstruction queues a forced-response instruction. The returned
// error only reports whether a live channel existed at call time; the
// instruction remains queued either way and is retried after reconnect.
func (c *Conn) SendInstruction(text string, forceSpeak bool) error {
	return c.enqueue(outbound{Type: "instruction", Text: text, ForceSpeak: forceSpeak})
}

// SetMicEnabled queues a mic-control frame for the candidate's outbound
// audio track.
func (c *Conn) SetMicEnabled(enabled bool) error {
	e := enabled
	return c.enqueue(outbound{Type: "mic", Enabled: &e})
}

// RequestFrame asks the agent for a still of the candidate's video
// track. The image comes back as a frame event on Events.
func (c *Conn) RequestFrame() error {
	return c.enqueue(outbound{Type: "frame_request"})
}

// PendingCount reports queued outbound frames, for tests and diagnostics.
func (c *Conn) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Conn) enqueue(o outbound) error {
	c.mu.Lock()
	c.pending = append(c.pending, o)
	live := c.ws != nil
	c.mu.Unlock()

	select {
	case c.kick <- struct{}{}:
	default:
	}
	if !live {
		metricSendDeferred.Inc()
		return fmt.Errorf("agent channel unavailable, %s queued", o.Type)
	}
	return nil
}

func (c *Conn) run() {
	defer close(c.Events)
	for {
		if err := c.connectAndPump(); err != nil {
			c.addFailure()
			c.emit(Event{Type: EventConnectionState, State: "disconnected"})
		} else {
			c.resetFailures()
		}
		if c.ctx.Err() != nil {
			return
		}
		time.Sleep(c.nextBackoff())
	}
}

func (c *Conn) connectAndPump() error {
	if time.Now().Before(c.circuit) {
		time.Sleep(500 * time.Millisecond)
		return fmt.Errorf("circuit open")
	}

	hdr := make(http.Header)
	if c.cfg.ChannelToken != "" {
		hdr.Set("Authorization", "Bearer "+c.cfg.ChannelToken)
	}
	dctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()
	start := time.Now()
	ws, _, err := websocket.Dial(dctx, c.cfg.URL, &websocket.DialOptions{HTTPHeader: hdr})
	if err != nil {
		log.Printf("[agent] connect error: %v", err)
		return err
	}
	log.Printf("[agent] connected in %dms", time.Since(start).Milliseconds())
	metricReconnects.Inc()

	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.ws = nil
		c.mu.Unlock()
		_ = ws.Close(websocket.StatusNormalClosure, "bye")
	}()

	c.emit(Event{Type: EventConnectionState, State: "connected"})

	// connClosed releases the writer when the read side tears down, so a
	// writer blocked waiting for work does not leak across reconnects.
	connClosed := make(chan struct{})
	defer close(connClosed)

	// Writer: drain the pending queue, oldest first. A frame is only
	// removed once its write succeeded.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for {
			o, ok := c.peekPending()
			if !ok {
				select {
				case <-c.ctx.Done():
					return
				case <-connClosed:
					return
				case <-c.kick:
					continue
				}
			}
			wctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
			err := writeJSON(wctx, ws, o)
			cancel()
			if err != nil {
				log.Printf("[agent] write error, %s stays queued: %v", o.Type, err)
				metricSendRetries.Inc()
				// Closing the socket kicks the blocked read out so the
				// reconnect starts now, not on the next inbound frame.
				_ = ws.Close(websocket.StatusInternalError, "write failed")
				return
			}
			c.popPending()
		}
	}()

	var rotate <-chan time.Time
	if c.cfg.SocketMaxAge > 0 {
		t := time.NewTimer(c.cfg.SocketMaxAge)
		defer t.Stop()
		rotate = t.C
	}

	for {
		if c.ctx.Err() != nil {
			return nil
		}
		select {
		case <-rotate:
			return fmt.Errorf("rotate")
		case <-writeDone:
			return fmt.Errorf("writer stopped")
		default:
		}
		_, data, err := ws.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return nil
			}
			return err
		}
		if len(data) == 0 {
			continue
		}
		ev, err := parseEvent(data)
		if err != nil {
			// Unknown or malformed frames are skipped for forward
			// compatibility.
			metricBadFrames.Inc()
			continue
		}
		c.emit(ev)
	}
}

func (c *Conn) peekPending() (outbound, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return outbound{}, false
	}
	return c.pending[0], true
}

func (c *Conn) popPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) > 0 {
		c.pending = c.pending[1:]
	}
}

func (c *Conn) emit(e Event) {
	select {
	case c.Events <- e:
	default:
		metricEventDrops.Inc()
	}
}

func (c *Conn) addFailure() {
	c.fails = append(c.fails, time.Now())
	cutoff := time.Now().Add(-60 * time.Second)
	j := 0
	for _, t := range c.fails {
		if t.After(cutoff) {
			c.fails[j] = t
			j++
		}
	}
	c.fails = c.fails[:j]
	if len(c.fails) >= 3 {
		c.circuit = time.Now().Add(30 * time.Second)
		metricCircuitOpens.Inc()
	}
}

func (c *Conn) resetFailures() { c.fails = nil }

func (c *Conn) nextBackoff() time.Duration {
	n := len(c.fails)
	if n <= 0 {
		return time.Second
	}
	if n > 5 {
		n = 5
	}
	base := time.Duration(1<<uint(n-1)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	return base
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v outbound) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, b)
}
