package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hire-genai/Hire-genAi-sub000/internal/auth"
	"github.com/hire-genai/Hire-genAi-sub000/internal/closing"
	"github.com/hire-genai/Hire-genAi-sub000/internal/config"
	"github.com/hire-genai/Hire-genAi-sub000/internal/eval"
	"github.com/hire-genai/Hire-genAi-sub000/internal/finalize"
	"github.com/hire-genai/Hire-genAi-sub000/internal/questions"
	"github.com/hire-genai/Hire-genAi-sub000/internal/screenshot"
	"github.com/hire-genai/Hire-genAi-sub000/internal/sequencer"
	"github.com/hire-genai/Hire-genAi-sub000/internal/session"
	"github.com/hire-genai/Hire-genAi-sub000/internal/store"
	"github.com/hire-genai/Hire-genAi-sub000/internal/transcript"
	"github.com/hire-genai/Hire-genAi-sub000/internal/types"

	agentpkg "github.com/hire-genai/Hire-genAi-sub000/internal/agent"
)

// Dialer opens the duplex agent channel for a session. Swapped out in
// tests for a fake transport.
type Dialer func(sessionID, channelToken string) (session.Transport, <-chan agentpkg.Event)

// runtime is everything that lives only while a session runs.
type runtime struct {
	loop       *session.Loop
	transcript *transcript.Store
	questions  []types.Question
}

type Handlers struct {
	cfg   config.Config
	store *store.Store
	bank  questions.Bank
	obs   session.Broadcaster
	dial  Dialer

	mu       sync.Mutex
	runtimes map[string]*runtime
}

func NewHandlers(cfg config.Config, st *store.Store, bank questions.Bank, obs session.Broadcaster, dial Dialer) *Handlers {
	return &Handlers{
		cfg:      cfg,
		store:    st,
		bank:     bank,
		obs:      obs,
		dial:     dial,
		runtimes: make(map[string]*runtime),
	}
}

type createSessionRequest struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Agent.TokenSecret == "" {
		http.Error(w, "missing agent token secret", http.StatusBadRequest)
		return
	}
	var req createSessionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	id := uuid.New().String()
	exp := time.Now().Add(time.Duration(h.cfg.Agent.TokenExpMin) * time.Minute).Unix()
	token, err := auth.GenerateChannelToken(h.cfg.Agent.TokenSecret, id, exp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sess := &types.Session{
		ID:           id,
		CandidateID:  req.CandidateID,
		JobID:        req.JobID,
		ChannelToken: token,
		StartedAt:    time.Now().UTC(),
		Status:       types.StatusInitializing,
	}
	_ = h.store.CreateSession(sess)
	h.store.AppendEvent(id, "session_created", map[string]any{"candidate_id": req.CandidateID, "job_id": req.JobID})

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    id,
		"channel_token": token,
		"status":        sess.Status,
	})
}

func (h *Handlers) HandleStartSession(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}

	h.mu.Lock()
	if _, ok := h.runtimes[id]; ok {
		h.mu.Unlock()
		h.store.AppendEvent(id, "start_requested", map[string]any{"noop": true})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": true})
		return
	}
	rt := h.buildRuntime(r, sess)
	h.runtimes[id] = rt
	h.mu.Unlock()

	h.store.AppendEvent(id, "start_requested", nil)
	rt.loop.Run()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"running":   true,
		"questions": len(rt.questions),
	})
}

// buildRuntime assembles a session's moving parts. Called with h.mu held
// so a racing double-start cannot build two loops.
func (h *Handlers) buildRuntime(r *http.Request, sess *types.Session) *runtime {
	qs := h.bank.FetchQuestions(r.Context(), sess.ID, sess.JobID)

	var snap transcript.Snapshotter
	if dir := h.cfg.Interview.SnapshotDir; dir != "" {
		snap = transcript.NewFileSnapshotter(dir)
	}
	ts := transcript.New(sess.ID, snap)
	if fs, ok := snap.(*transcript.FileSnapshotter); ok {
		if prev, err := fs.Read(sess.ID); err == nil {
			ts.Restore(prev)
			log.Printf("[api] sid=%s restored transcript snapshot (%d utterances)", sess.ID, len(prev.Utterances))
		}
	}

	transport, events := h.dial(sess.ID, sess.ChannelToken)

	seq := sequencer.New(sequencer.Config{
		MinAnswerWords:  h.cfg.Interview.MinAnswerWords,
		MaxElaborations: h.cfg.Interview.MaxElaborations,
		Greeting:        h.cfg.Agent.Greeting,
		ClosingSentence: h.cfg.Interview.ClosingSentence,
	}, qs, transport, ts)

	det := closing.NewDetector(time.Duration(h.cfg.Interview.ClosingCountdownS) * time.Second)

	fin := &finalize.Finalizer{
		SessionID:       sess.ID,
		StartedAt:       sess.StartedAt,
		QuestionCount:   len(qs),
		Store:           ts,
		ScreenshotGrace: time.Duration(h.cfg.Interview.ScreenshotGraceMs) * time.Millisecond,
		CloseTransport:  transport.Close,
		SetStatus:       func(status string) { h.store.SetStatus(sess.ID, status) },
	}
	if h.cfg.Downstream.EvalURL != "" || h.cfg.Downstream.ReportURL != "" {
		client := eval.NewHTTPClient(h.cfg.Downstream.EvalURL, h.cfg.Downstream.ReportURL)
		fin.Trigger = client
		if h.cfg.Downstream.ReportURL != "" {
			fin.Reporter = client
		}
	}
	if h.cfg.Downstream.ScreenshotURL != "" {
		fin.Sink = screenshot.NewHTTPSink(h.cfg.Downstream.ScreenshotURL)
	} else {
		fin.Sink = screenshot.NopSink{}
	}

	loop := session.NewLoop(sess.ID, session.Config{
		UnmuteDelay:     time.Duration(h.cfg.Interview.UnmuteDelayMs) * time.Millisecond,
		QuestionTimeout: time.Duration(h.cfg.Interview.QuestionTimeoutS) * time.Second,
	}, transport, events, seq, ts, det, fin)
	loop.SetStatus = func(status string) { h.store.SetStatus(sess.ID, status) }
	loop.Observers = h.obs
	// The closing screenshot is a still requested over the agent channel.
	fin.Capture = loop.CaptureFrame

	return &runtime{loop: loop, transcript: ts, questions: qs}
}

func (h *Handlers) HandleEndSession(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	h.mu.Lock()
	rt := h.runtimes[id]
	h.mu.Unlock()
	if rt == nil {
		h.store.AppendEvent(id, "end_requested", map[string]any{"noop": true})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": false})
		return
	}
	h.store.AppendEvent(id, "end_requested", nil)
	rt.loop.RequestEnd()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": false})
}

func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	h.mu.Lock()
	rt := h.runtimes[id]
	h.mu.Unlock()
	resp := map[string]any{
		"session_id":   sess.ID,
		"candidate_id": sess.CandidateID,
		"job_id":       sess.JobID,
		"status":       sess.Status,
		"started_at":   sess.StartedAt,
	}
	if rt != nil {
		resp["answers"] = rt.transcript.AnswerCount()
		resp["questions"] = len(rt.questions)
		if remaining := rt.loop.CountdownRemaining(); remaining >= 0 {
			resp["closing_countdown_s"] = remaining
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"events":     h.store.ListEvents(id),
	})
}

func (h *Handlers) HandleTranscript(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	h.mu.Lock()
	rt := h.runtimes[id]
	h.mu.Unlock()
	if rt == nil {
		writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "utterances": []types.Utterance{}})
		return
	}
	answers := make(map[int]string)
	for i := 0; i < len(rt.questions); i++ {
		if text, ok := rt.transcript.Answer(i); ok {
			answers[i] = text
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"utterances": rt.transcript.Utterances(),
		"answers":    answers,
		"text":       rt.transcript.Finalize(),
	})
}

// HandleMintChannelToken reissues a channel token, for reconnects after
// the original expired mid-interview.
func (h *Handlers) HandleMintChannelToken(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	if h.cfg.Agent.TokenSecret == "" {
		http.Error(w, "missing agent token secret", http.StatusBadRequest)
		return
	}
	exp := time.Now().Add(time.Duration(h.cfg.Agent.TokenExpMin) * time.Minute).Unix()
	token, err := auth.GenerateChannelToken(h.cfg.Agent.TokenSecret, id, exp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.store.AppendEvent(id, "channel_token_minted", nil)
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "channel_token": token, "exp": exp})
}

// Shutdown requests an end on every running loop and waits up to the
// timeout for them to finish, so transcripts flush before the process
// exits.
func (h *Handlers) Shutdown(timeout time.Duration) {
	h.mu.Lock()
	rts := make([]*runtime, 0, len(h.runtimes))
	for _, rt := range h.runtimes {
		rts = append(rts, rt)
	}
	h.mu.Unlock()
	for _, rt := range rts {
		rt.loop.RequestEnd()
	}
	deadline := time.After(timeout)
	for _, rt := range rts {
		select {
		case <-rt.loop.Done():
		case <-deadline:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
