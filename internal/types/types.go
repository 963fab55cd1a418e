package types

import (
	"strings"
	"time"
)

// Speaker identifies who produced an utterance.
type Speaker string

const (
	SpeakerAgent     Speaker = "agent"
	SpeakerCandidate Speaker = "candidate"
)

// Session status values. Transitions are strictly forward:
// initializing -> active -> (closing ->) completed | incomplete.
const (
	StatusInitializing = "initializing"
	StatusActive       = "active"
	StatusClosing      = "closing"
	StatusCompleted    = "completed"
	StatusIncomplete   = "incomplete"
)

type Session struct {
	ID           string    `json:"session_id"`
	CandidateID  string    `json:"candidate_id"`
	JobID        string    `json:"job_id"`
	ChannelToken string    `json:"channel_token,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	Status       string    `json:"status"`
}

// Event is a timestamped session event for the observer feed.
type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"ts"`
	Payload map[string]any `json:"payload,omitempty"`
}

var statusRank = map[string]int{
	StatusInitializing: 0,
	StatusActive:       1,
	StatusClosing:      2,
	StatusCompleted:    3,
	StatusIncomplete:   3,
}

// StatusAdvances reports whether moving from one status to another goes
// forward. Terminal statuses never advance to anything.
func StatusAdvances(from, to string) bool {
	fr, ok := statusRank[from]
	if !ok {
		return true
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	if fr >= statusRank[StatusCompleted] {
		return false
	}
	return tr > fr
}

// Question is one entry of the immutable interview script.
type Question struct {
	Index    int      `json:"index"`
	Text     string   `json:"text"`
	Round    string   `json:"round"`
	Criteria []string `json:"criteria"`
}

// Utterance is a single speaker-tagged transcript entry.
type Utterance struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NormalizeText lowercases, trims and strips trailing punctuation. It is
// the shared normalization used by classification and dedup.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, ".!?,;: ")
}

// WordCount counts whitespace-delimited tokens after trimming.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
