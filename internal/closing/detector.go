// Package closing watches agent utterances for the interview closing
// phrase and runs the bounded auto-end countdown that force-terminates a
// session the candidate never ends explicitly.
package closing

import (
	"log"
	"strings"
	"sync"
	"time"
)

// closingPhrase reports whether an agent utterance signals the wrap-up.
func closingPhrase(text string) bool {
	t := strings.ToLower(text)
	if strings.Contains(t, "thank you") && strings.Contains(t, "recruitment team") {
		return true
	}
	return strings.Contains(t, "thank you for interviewing")
}

// Detector arms a single countdown the first time the closing phrase is
// heard. Tick and expiry notifications are delivered through callbacks;
// the session loop routes them back onto its own goroutine.
type Detector struct {
	countdown time.Duration

	// OnClosing fires once, when the phrase is first detected.
	OnClosing func()
	// OnTick reports remaining whole seconds, for display.
	OnTick func(remaining int)
	// OnExpired fires when the countdown runs out without an explicit end.
	OnExpired func()

	mu      sync.Mutex
	armed   bool
	stopped bool
	stop    chan struct{}
}

func NewDetector(countdown time.Duration) *Detector {
	return &Detector{countdown: countdown}
}

// Armed reports whether the countdown has started.
func (d *Detector) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// OnAgentUtterance checks one agent utterance. The first closing-phrase
// match arms the countdown; later matches are no-ops.
func (d *Detector) OnAgentUtterance(text string) {
	if !closingPhrase(text) {
		return
	}
	d.mu.Lock()
	if d.armed {
		d.mu.Unlock()
		return
	}
	d.armed = true
	d.stop = make(chan struct{})
	stop := d.stop
	d.mu.Unlock()

	log.Printf("[closing] closing phrase detected, auto-end in %s", d.countdown)
	metricClosingDetected.Inc()
	if d.OnClosing != nil {
		d.OnClosing()
	}
	go d.run(stop)
}

// run ticks once per second until expiry or cancellation.
func (d *Detector) run(stop chan struct{}) {
	total := int(d.countdown / time.Second)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := total
	if d.OnTick != nil {
		d.OnTick(remaining)
	}
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining--
			if d.OnTick != nil && remaining >= 0 {
				d.OnTick(remaining)
			}
			if remaining <= 0 {
				metricAutoEnds.Inc()
				log.Printf("[closing] countdown expired, forcing termination")
				if d.OnExpired != nil {
					d.OnExpired()
				}
				return
			}
		}
	}
}

// Cancel stops a running countdown. Safe to call twice, or before the
// countdown ever started.
func (d *Detector) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.armed || d.stopped {
		return
	}
	d.stopped = true
	close(d.stop)
}
