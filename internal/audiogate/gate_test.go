package audiogate

import "testing"

func TestMuteOnAgentTurnStart(t *testing.T) {
	g := New()
	if !g.Enabled() {
		t.Fatalf("gate should start enabled")
	}
	d := g.OnAgentTurnStart()
	if !d.SetMic || d.Enabled {
		t.Fatalf("expected mute decision, got %+v", d)
	}
	if g.Enabled() {
		t.Fatalf("gate should be disabled while agent speaks")
	}
}

func TestUnmuteAfterDelay(t *testing.T) {
	g := New()
	g.OnAgentTurnStart()
	gen := g.OnAgentTurnStop()
	d := g.OnUnmuteTimer(gen)
	if !d.SetMic || !d.Enabled {
		t.Fatalf("expected unmute decision, got %+v", d)
	}
	if !g.Enabled() {
		t.Fatalf("gate should be enabled after delay")
	}
}

func TestNewTurnCancelsPendingUnmute(t *testing.T) {
	g := New()
	g.OnAgentTurnStart()
	gen := g.OnAgentTurnStop()

	// Agent starts a new turn before the unmute delay elapses
	g.OnAgentTurnStart()

	d := g.OnUnmuteTimer(gen)
	if d.SetMic {
		t.Fatalf("stale unmute timer must be a no-op, got %+v", d)
	}
	if g.Enabled() {
		t.Fatalf("gate must stay muted during the newer turn")
	}
}

func TestRepeatedTurnStartIsStable(t *testing.T) {
	g := New()
	g.OnAgentTurnStart()
	d := g.OnAgentTurnStart()
	if d.SetMic {
		t.Fatalf("already-muted gate should not re-emit a mute decision")
	}
}

func TestUnmuteTimerWhenAlreadyEnabled(t *testing.T) {
	g := New()
	gen := g.OnAgentTurnStop()
	d := g.OnUnmuteTimer(gen)
	if d.SetMic {
		t.Fatalf("enabled gate should ignore unmute timers")
	}
}
