// Package session runs one interview's event loop: a single goroutine
// that consumes the agent event stream plus timer fires and explicit user
// actions, and is the only writer of sequencer, gate and closing state.
// Everything external enters through post(), which serializes it onto the
// loop goroutine.
package session

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/hire-genai/Hire-genAi-sub000/internal/agent"
	"github.com/hire-genai/Hire-genAi-sub000/internal/audiogate"
	"github.com/hire-genai/Hire-genAi-sub000/internal/classify"
	"github.com/hire-genai/Hire-genAi-sub000/internal/closing"
	"github.com/hire-genai/Hire-genAi-sub000/internal/finalize"
	"github.com/hire-genai/Hire-genAi-sub000/internal/sequencer"
	"github.com/hire-genai/Hire-genAi-sub000/internal/transcript"
	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

// Transport is the narrow control surface of the agent channel.
type Transport interface {
	SendInstruction(text string, forceSpeak bool) error
	SetMicEnabled(enabled bool) error
	RequestFrame() error
	Close()
}

// Broadcaster publishes session events to live observers (UI feed).
// Implementations must not block.
type Broadcaster interface {
	Publish(sessionID, typ string, payload map[string]any)
}

type Config struct {
	UnmuteDelay     time.Duration
	QuestionTimeout time.Duration // zero disables the per-question timeout
}

type Loop struct {
	sessionID string
	cfg       Config

	transport Transport
	events    <-chan agent.Event

	seq   *sequencer.Sequencer
	store *transcript.Store
	gate  *audiogate.Gate
	det   *closing.Detector
	fin   *finalize.Finalizer

	// SetStatus publishes forward-only session status changes.
	SetStatus func(status string)
	Observers Broadcaster

	acts chan func()
	done chan struct{}

	// last delivered (speaker, exact text), for duplicate-event dedup
	// ahead of the sequencer.
	lastSpeaker types.Speaker
	lastText    string

	qTimer     *time.Timer
	qTimerIdx  int
	remaining  atomic.Int32
	frames     chan []byte
	terminated bool
}

func NewLoop(sessionID string, cfg Config, transport Transport, events <-chan agent.Event,
	seq *sequencer.Sequencer, store *transcript.Store, det *closing.Detector, fin *finalize.Finalizer) *Loop {
	l := &Loop{
		sessionID: sessionID,
		cfg:       cfg,
		transport: transport,
		events:    events,
		seq:       seq,
		store:     store,
		gate:      audiogate.New(),
		det:       det,
		fin:       fin,
		acts:      make(chan func(), 64),
		done:      make(chan struct{}),
		qTimerIdx: -1,
		frames:    make(chan []byte, 1),
	}
	l.remaining.Store(-1)
	det.OnClosing = func() { l.post(l.onClosingDetected) }
	det.OnTick = func(remaining int) {
		l.remaining.Store(int32(remaining))
		l.publish("closing_countdown", map[string]any{"remaining_s": remaining})
	}
	det.OnExpired = func() { l.post(func() { l.terminate("auto_end") }) }
	return l
}

// Run starts the loop goroutine. The greeting goes out immediately.
func (l *Loop) Run() {
	if l.SetStatus != nil {
		l.SetStatus(types.StatusActive)
	}
	go l.run()
}

func (l *Loop) run() {
	l.seq.Start()
	for {
		select {
		case <-l.done:
			return
		case f := <-l.acts:
			f()
		case ev, ok := <-l.events:
			if !ok {
				// Transport gone for good; finish with what we have.
				l.terminate("transport_closed")
				return
			}
			l.handleEvent(ev)
		}
	}
}

// post serializes an external action onto the loop goroutine. Actions
// arriving after termination are dropped.
func (l *Loop) post(f func()) {
	select {
	case l.acts <- f:
	case <-l.done:
	}
}

// RequestEnd routes an explicit user end action through the loop. Safe
// to call from any goroutine, including after termination.
func (l *Loop) RequestEnd() {
	select {
	case l.acts <- func() { l.terminate("manual") }:
	case <-l.done:
	}
}

// CountdownRemaining reports the auto-end countdown in whole seconds,
// or -1 when no countdown is running.
func (l *Loop) CountdownRemaining() int {
	return int(l.remaining.Load())
}

// CaptureFrame requests a still of the candidate's video track and waits
// briefly for the agent to deliver it. Must not be called from the loop
// goroutine; the frame event has to be routed while the caller waits.
func (l *Loop) CaptureFrame() ([]byte, error) {
	select {
	case <-l.frames:
	default:
	}
	if err := l.transport.RequestFrame(); err != nil {
		return nil, err
	}
	select {
	case img := <-l.frames:
		if len(img) == 0 {
			return nil, fmt.Errorf("agent delivered an empty frame")
		}
		return img, nil
	case <-time.After(time.Second):
		return nil, fmt.Errorf("no frame from agent within 1s")
	}
}

func (l *Loop) handleEvent(ev agent.Event) {
	switch ev.Type {
	case agent.EventTurnStart:
		l.applyGate(l.gate.OnAgentTurnStart())

	case agent.EventTurnStop:
		gen := l.gate.OnAgentTurnStop()
		delay := l.cfg.UnmuteDelay
		if delay <= 0 {
			delay = 300 * time.Millisecond
		}
		time.AfterFunc(delay, func() {
			l.post(func() { l.applyGate(l.gate.OnUnmuteTimer(gen)) })
		})

	case agent.EventUtteranceDelta:
		// Deltas feed the live display only; state waits for completes.
		l.publish("utterance_delta", map[string]any{"speaker": string(ev.Speaker), "text": ev.Text})

	case agent.EventUtteranceComplete:
		l.handleUtterance(ev)

	case agent.EventFrame:
		select {
		case l.frames <- ev.Data:
		default:
		}

	case agent.EventConnectionState:
		log.Printf("[session] sid=%s connection %s", l.sessionID, ev.State)
		l.publish("connection_state", map[string]any{"state": ev.State})
	}
}

func (l *Loop) handleUtterance(ev agent.Event) {
	// Duplicate transcription events for the same utterance are dropped
	// before they can touch the sequencer.
	if ev.Speaker == l.lastSpeaker && ev.Text == l.lastText {
		return
	}
	l.lastSpeaker = ev.Speaker
	l.lastText = ev.Text

	added := l.store.Append(types.Utterance{Speaker: ev.Speaker, Text: ev.Text, Timestamp: time.Now().UTC()})
	if added {
		l.publish("utterance", map[string]any{"speaker": string(ev.Speaker), "text": ev.Text})
	}

	switch ev.Speaker {
	case types.SpeakerAgent:
		l.det.OnAgentUtterance(ev.Text)

	case types.SpeakerCandidate:
		before := l.seq.CurrentIndex()
		res := l.seq.HandleCandidateUtterance(ev.Text)
		if res.Kind == classify.EndRequest && l.seq.State() == sequencer.StateClosing {
			// Candidate asked to stop; status moves forward to closing.
			l.markClosing()
		}
		if l.seq.CurrentIndex() != before || l.seq.State() != sequencer.StateAwaitingAnswer {
			l.publish("question_progress", map[string]any{
				"index": l.seq.CurrentIndex(),
				"total": l.seq.QuestionCount(),
				"state": l.seq.State().String(),
			})
		}
		l.armQuestionTimer()
	}
}

// armQuestionTimer (re)schedules the configurable per-question timeout
// whenever a new question becomes the open one.
func (l *Loop) armQuestionTimer() {
	if l.cfg.QuestionTimeout <= 0 {
		return
	}
	if l.seq.State() != sequencer.StateAwaitingAnswer {
		if l.qTimer != nil {
			l.qTimer.Stop()
			l.qTimer = nil
		}
		l.qTimerIdx = -1
		return
	}
	idx := l.seq.CurrentIndex()
	if idx == l.qTimerIdx {
		return
	}
	if l.qTimer != nil {
		l.qTimer.Stop()
	}
	l.qTimerIdx = idx
	l.qTimer = time.AfterFunc(l.cfg.QuestionTimeout, func() {
		l.post(func() {
			l.seq.OnQuestionTimeout(idx)
			l.armQuestionTimer()
		})
	})
}

func (l *Loop) applyGate(d audiogate.Decision) {
	if !d.SetMic {
		return
	}
	if err := l.transport.SetMicEnabled(d.Enabled); err != nil {
		log.Printf("[session] sid=%s mic control deferred: %v", l.sessionID, err)
	}
	l.publish("mic", map[string]any{"enabled": d.Enabled})
}

func (l *Loop) onClosingDetected() {
	l.markClosing()
	// Screenshot goes up at detection time, while the candidate is still
	// on camera. Runs off-loop; the upload has its own grace timeout.
	go l.fin.CaptureClosing()
	l.publish("closing", map[string]any{"countdown": true})
}

func (l *Loop) markClosing() {
	if l.SetStatus != nil {
		l.SetStatus(types.StatusClosing)
	}
}

// terminate is the single exit path. It runs on the loop goroutine; the
// finalizer's latch makes racing entries (manual vs auto-end) harmless.
func (l *Loop) terminate(reason string) {
	if l.terminated {
		return
	}
	l.terminated = true
	l.det.Cancel()
	if l.qTimer != nil {
		l.qTimer.Stop()
	}
	l.seq.MarkDone()
	out := l.fin.Terminate(reason)
	l.publish("terminated", map[string]any{
		"reason":     reason,
		"status":     out.Status,
		"incomplete": out.Incomplete,
		"reasons":    out.Reasons,
	})
	close(l.done)
}

func (l *Loop) publish(typ string, payload map[string]any) {
	if l.Observers == nil {
		return
	}
	l.Observers.Publish(l.sessionID, typ, payload)
}

// Done exposes loop completion for callers that wait on shutdown.
func (l *Loop) Done() <-chan struct{} { return l.done }
