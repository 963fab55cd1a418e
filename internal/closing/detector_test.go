package closing

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestClosingPhraseVocabulary(t *testing.T) {
	cases := map[string]bool{
		"Thank you for your time, the recruitment team will reach out.": true,
		"Thank you for interviewing with us today.":                     true,
		"Thank you, that answers my question.":                          false,
		"The recruitment team is large.":                                false,
		"Let's move to the next question.":                              false,
	}
	for text, want := range cases {
		if got := closingPhrase(text); got != want {
			t.Fatalf("%q: expected %v, got %v", text, want, got)
		}
	}
}

func TestDetectorArmsOnce(t *testing.T) {
	d := NewDetector(time.Hour)
	defer d.Cancel()
	var fired int32
	d.OnClosing = func() { atomic.AddInt32(&fired, 1) }

	d.OnAgentUtterance("Thank you for interviewing with us.")
	d.OnAgentUtterance("Thank you for interviewing with us.")
	if n := atomic.LoadInt32(&fired); n != 1 {
		t.Fatalf("expected single closing notification, got %d", n)
	}
	if !d.Armed() {
		t.Fatalf("detector should be armed")
	}
}

func TestDetectorIgnoresNonClosing(t *testing.T) {
	d := NewDetector(time.Hour)
	d.OnAgentUtterance("Tell me about your last project.")
	if d.Armed() {
		t.Fatalf("detector must not arm on ordinary speech")
	}
}

func TestCountdownExpiry(t *testing.T) {
	d := NewDetector(1 * time.Second)
	expired := make(chan struct{})
	d.OnExpired = func() { close(expired) }

	d.OnAgentUtterance("Thank you for interviewing with us.")
	select {
	case <-expired:
	case <-time.After(3 * time.Second):
		t.Fatalf("countdown never expired")
	}
}

func TestTickReportsRemaining(t *testing.T) {
	d := NewDetector(2 * time.Second)
	var first int32 = -1
	d.OnTick = func(remaining int) {
		atomic.CompareAndSwapInt32(&first, -1, int32(remaining))
	}
	done := make(chan struct{})
	d.OnExpired = func() { close(done) }

	d.OnAgentUtterance("Thank you for interviewing with us.")
	select {
	case <-done:
	case <-time.After(4 * time.Second):
		t.Fatalf("countdown never expired")
	}
	if got := atomic.LoadInt32(&first); got != 2 {
		t.Fatalf("expected first tick to report 2 remaining, got %d", got)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	d := NewDetector(time.Hour)
	d.OnAgentUtterance("Thank you for interviewing with us.")
	d.Cancel()
	d.Cancel() // second cancel must be safe
}

func TestCancelBeforeArmIsSafe(t *testing.T) {
	d := NewDetector(time.Hour)
	d.Cancel()
}

func TestCancelPreventsExpiry(t *testing.T) {
	d := NewDetector(1 * time.Second)
	var expired int32
	d.OnExpired = func() { atomic.AddInt32(&expired, 1) }

	d.OnAgentUtterance("Thank you for interviewing with us.")
	d.Cancel()
	time.Sleep(2 * time.Second)
	if atomic.LoadInt32(&expired) != 0 {
		t.Fatalf("cancelled countdown must not expire")
	}
}
