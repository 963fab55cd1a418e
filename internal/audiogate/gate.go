// Package audiogate decides when the candidate's outbound audio track is
// live. The track is muted the instant the agent starts speaking and
// unmuted a short delay after it stops, so tail playback of the agent's
// own voice is never captured and classified as candidate speech.
//
// The gate is pure: it returns decisions and never touches the track or
// timers itself. The session loop applies decisions and schedules the
// delayed unmute, which keeps all gate state on one goroutine.
package audiogate

// Decision is the action the gate wants applied to the mic track.
type Decision struct {
	SetMic  bool
	Enabled bool
}

type Gate struct {
	enabled bool
	// gen invalidates a scheduled unmute when a newer agent turn starts
	// before the delay elapses.
	gen int
}

func New() *Gate {
	return &Gate{enabled: true}
}

// Enabled reports the current mic state.
func (g *Gate) Enabled() bool { return g.enabled }

// OnAgentTurnStart mutes the mic for the duration of the agent's turn.
func (g *Gate) OnAgentTurnStart() Decision {
	g.gen++
	if !g.enabled {
		return Decision{}
	}
	g.enabled = false
	return Decision{SetMic: true, Enabled: false}
}

// OnAgentTurnStop returns the generation the caller must hand back via
// OnUnmuteTimer after the configured delay.
func (g *Gate) OnAgentTurnStop() int {
	return g.gen
}

// OnUnmuteTimer re-enables the mic if no newer agent turn started while
// the delay ran. Stale timer fires are no-ops.
func (g *Gate) OnUnmuteTimer(gen int) Decision {
	if gen != g.gen || g.enabled {
		return Decision{}
	}
	g.enabled = true
	return Decision{SetMic: true, Enabled: true}
}
