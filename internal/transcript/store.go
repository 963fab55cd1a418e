// Package transcript owns the append-only utterance log and the per-question
// answer records for one session, with a durable snapshot after every
// mutation so a crashed session can be rehydrated best-effort.
package transcript

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

type Store struct {
	mu         sync.RWMutex
	sessionID  string
	utterances []types.Utterance
	answers    map[int]string
	snap       Snapshotter
}

// Snapshotter persists the full store contents. Writes must be idempotent
// overwrites; failures are surfaced to the caller for logging only.
type Snapshotter interface {
	Write(sessionID string, s Snapshot) error
}

// Snapshot is the durable serialized form of the store.
type Snapshot struct {
	SessionID  string            `json:"session_id"`
	Utterances []types.Utterance `json:"utterances"`
	Answers    map[int]string    `json:"answers"`
	SavedAt    time.Time         `json:"saved_at"`
}

func New(sessionID string, snap Snapshotter) *Store {
	return &Store{
		sessionID: sessionID,
		answers:   make(map[int]string),
		snap:      snap,
	}
}

// Append records an utterance. Consecutive entries with identical speaker
// and exact text are merged so duplicated transcription events are not
// double-recorded. Entries are never mutated or deleted once appended.
// Returns true if the utterance was actually added.
func (s *Store) Append(u types.Utterance) bool {
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return false
	}
	u.Text = text
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	if n := len(s.utterances); n > 0 {
		last := s.utterances[n-1]
		if last.Speaker == u.Speaker && last.Text == u.Text {
			s.mu.Unlock()
			metricDuplicatesMerged.Inc()
			return false
		}
	}
	// Timestamps are monotone non-decreasing within a session; clamp
	// out-of-order delivery to the previous entry's time.
	if n := len(s.utterances); n > 0 && u.Timestamp.Before(s.utterances[n-1].Timestamp) {
		u.Timestamp = s.utterances[n-1].Timestamp
	}
	s.utterances = append(s.utterances, u)
	s.mu.Unlock()

	metricUtterances.WithLabelValues(string(u.Speaker)).Inc()
	s.persist()
	return true
}

// RecordAnswer upserts the final answer for a question index. A retried
// write for the same index overwrites, never duplicating the index.
func (s *Store) RecordAnswer(index int, text string) {
	s.mu.Lock()
	s.answers[index] = text
	s.mu.Unlock()
	metricAnswersRecorded.Inc()
	s.persist()
}

// Answer returns the recorded answer for an index, if any.
func (s *Store) Answer(index int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[index]
	return a, ok
}

// AnswerCount returns the number of question indices with a recorded answer.
func (s *Store) AnswerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

// Utterances returns a copy of the log.
func (s *Store) Utterances() []types.Utterance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Utterance, len(s.utterances))
	copy(out, s.utterances)
	return out
}

// CandidateUtteranceCount counts candidate entries, used by completion
// reporting to flag sessions where the candidate barely spoke.
func (s *Store) CandidateUtteranceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.utterances {
		if u.Speaker == types.SpeakerCandidate {
			n++
		}
	}
	return n
}

// Finalize concatenates all utterances into one ordered, speaker-tagged
// transcript string. It succeeds even when nothing was recorded.
func (s *Store) Finalize() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var b strings.Builder
	for _, u := range s.utterances {
		fmt.Fprintf(&b, "%s: %s\n", speakerTag(u.Speaker), u.Text)
	}
	return b.String()
}

func speakerTag(sp types.Speaker) string {
	if sp == types.SpeakerAgent {
		return "Interviewer"
	}
	return "Candidate"
}

// Restore rehydrates the store from a snapshot, replacing current contents.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.utterances = append([]types.Utterance(nil), snap.Utterances...)
	s.answers = make(map[int]string, len(snap.Answers))
	for k, v := range snap.Answers {
		s.answers[k] = v
	}
}

func (s *Store) persist() {
	if s.snap == nil {
		return
	}
	s.mu.RLock()
	snap := Snapshot{
		SessionID:  s.sessionID,
		Utterances: append([]types.Utterance(nil), s.utterances...),
		Answers:    make(map[int]string, len(s.answers)),
		SavedAt:    time.Now().UTC(),
	}
	for k, v := range s.answers {
		snap.Answers[k] = v
	}
	s.mu.RUnlock()

	if err := s.snap.Write(s.sessionID, snap); err != nil {
		log.Printf("[transcript] snapshot write failed sid=%s: %v", s.sessionID, err)
		metricSnapshotErrors.Inc()
		return
	}
	metricSnapshots.Inc()
}
