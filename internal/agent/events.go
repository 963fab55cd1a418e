package agent

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

// EventType enumerates the typed events the agent channel delivers.
type EventType string

const (
	EventUtteranceDelta    EventType = "utterance_delta"
	EventUtteranceComplete EventType = "utterance_complete"
	EventTurnStart         EventType = "turn_start"
	EventTurnStop          EventType = "turn_stop"
	EventConnectionState   EventType = "connection_state"
	EventFrame             EventType = "frame"
)

// Event is one parsed message from the agent event stream.
type Event struct {
	Type    EventType
	Speaker types.Speaker
	Text    string
	State   string
	// Data carries the decoded image bytes of a frame event.
	Data []byte
	Raw  map[string]any
}

// parseEvent decodes one wire frame leniently. Unknown types are returned
// with an error and skipped by the reader for forward compatibility.
func parseEvent(data []byte) (Event, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Event{}, err
	}
	typ := toString(m["type"])
	ev := Event{Raw: m}
	switch {
	case strings.EqualFold(typ, "utterance_delta"):
		ev.Type = EventUtteranceDelta
	case strings.EqualFold(typ, "utterance_complete"):
		ev.Type = EventUtteranceComplete
	case strings.EqualFold(typ, "turn_start"):
		ev.Type = EventTurnStart
	case strings.EqualFold(typ, "turn_stop"):
		ev.Type = EventTurnStop
	case strings.EqualFold(typ, "connection_state"):
		ev.Type = EventConnectionState
		ev.State = toString(m["state"])
		return ev, nil
	case strings.EqualFold(typ, "frame"):
		ev.Type = EventFrame
		data, err := base64.StdEncoding.DecodeString(toString(m["data"]))
		if err != nil {
			return Event{}, fmt.Errorf("frame event with undecodable data: %w", err)
		}
		ev.Data = data
		return ev, nil
	default:
		return Event{}, fmt.Errorf("unknown event type %q", typ)
	}
	ev.Text = toString(m["text"])
	switch strings.ToLower(toString(m["speaker"])) {
	case "agent":
		ev.Speaker = types.SpeakerAgent
	case "candidate", "user":
		ev.Speaker = types.SpeakerCandidate
	default:
		if ev.Type == EventTurnStart || ev.Type == EventTurnStop {
			// Turn events are always the agent's.
			ev.Speaker = types.SpeakerAgent
		} else {
			return Event{}, fmt.Errorf("event %q missing speaker", typ)
		}
	}
	return ev, nil
}

// outbound is one control frame queued for the agent.
type outbound struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	ForceSpeak bool   `json:"force_speak,omitempty"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
