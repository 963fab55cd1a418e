// Package finalize owns session termination: flushing the transcript,
// firing downstream evaluation, reporting completion, and tearing down
// the transport. Termination is effective at most once no matter how many
// paths race into it (manual end, auto-end countdown, transport loss).
package finalize

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hire-genai/Hire-genAi-sub000/internal/eval"
	"github.com/hire-genai/Hire-genAi-sub000/internal/screenshot"
	"github.com/hire-genai/Hire-genAi-sub000/internal/transcript"
	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

// Outcome summarizes a finished session for user-facing messaging.
type Outcome struct {
	Status     string
	Incomplete bool
	Reasons    []string
	Transcript string
}

type Finalizer struct {
	SessionID      string
	StartedAt      time.Time
	QuestionCount  int
	CompanyContext string

	Store    *transcript.Store
	Trigger  eval.Trigger
	Reporter eval.Reporter
	Sink     screenshot.Sink

	// Capture produces a best-effort closing screenshot; nil disables.
	Capture func() ([]byte, error)
	// ScreenshotGrace bounds the wait for the upload before teardown.
	ScreenshotGrace time.Duration

	// CloseTransport tears down the agent channel. May be nil in tests.
	CloseTransport func()
	// SetStatus publishes the terminal session status.
	SetStatus func(status string)

	once     sync.Once
	shotOnce sync.Once
	outcome  Outcome
}

// CaptureClosing uploads the closing screenshot as soon as the closing
// phrase is detected, ahead of the countdown. Terminate covers sessions
// that end without a closing phrase; the latch keeps it to one upload.
func (f *Finalizer) CaptureClosing() {
	f.shotOnce.Do(f.uploadScreenshot)
}

// Terminate runs the termination path exactly once and returns the
// outcome. Concurrent and repeated calls return the first invocation's
// outcome; only the first produces side effects.
func (f *Finalizer) Terminate(reason string) Outcome {
	f.once.Do(func() { f.run(reason) })
	return f.outcome
}

func (f *Finalizer) run(reason string) {
	log.Printf("[finalize] terminating sid=%s reason=%s", f.SessionID, reason)
	metricTerminations.WithLabelValues(reason).Inc()

	f.shotOnce.Do(f.uploadScreenshot)

	text := f.Store.Finalize()

	// Evaluation fires unconditionally, partial transcript or not.
	if f.Trigger != nil {
		f.Trigger.Submit(f.SessionID, text, f.CompanyContext)
	}

	outcome := Outcome{Status: types.StatusCompleted, Transcript: text}
	if f.Reporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		res, err := f.Reporter.MarkCompleted(ctx, f.SessionID, text, f.StartedAt)
		cancel()
		if err != nil {
			// Reporting never blocks termination; fall back to a local
			// completeness heuristic.
			log.Printf("[finalize] completion report failed sid=%s: %v", f.SessionID, err)
			res = f.localCompletion()
		}
		outcome.Incomplete = res.Incomplete
		outcome.Reasons = res.Reasons
	} else {
		res := f.localCompletion()
		outcome.Incomplete = res.Incomplete
		outcome.Reasons = res.Reasons
	}
	if outcome.Incomplete {
		outcome.Status = types.StatusIncomplete
	}

	if f.SetStatus != nil {
		f.SetStatus(outcome.Status)
	}
	if f.CloseTransport != nil {
		f.CloseTransport()
	}
	f.outcome = outcome
	log.Printf("[finalize] done sid=%s status=%s answers=%d/%d", f.SessionID, outcome.Status, f.Store.AnswerCount(), f.QuestionCount)
}

// uploadScreenshot captures and uploads the closing screenshot, waiting
// at most ScreenshotGrace before giving up. Always non-fatal.
func (f *Finalizer) uploadScreenshot() {
	if f.Capture == nil || f.Sink == nil {
		return
	}
	img, err := f.Capture()
	if err != nil || len(img) == 0 {
		log.Printf("[finalize] screenshot capture failed sid=%s: %v", f.SessionID, err)
		return
	}
	grace := f.ScreenshotGrace
	if grace <= 0 {
		grace = 1200 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := f.Sink.Upload(ctx, f.SessionID, img, "closing"); err != nil {
		log.Printf("[finalize] screenshot upload failed sid=%s: %v", f.SessionID, err)
		metricScreenshotFailures.Inc()
	}
}

// localCompletion is the fallback completeness check when the reporting
// service is unavailable: all questions answered and the candidate spoke
// more than a handful of times.
func (f *Finalizer) localCompletion() eval.CompletionResult {
	var reasons []string
	if n := f.Store.AnswerCount(); n < f.QuestionCount {
		reasons = append(reasons, "not all questions were answered")
	}
	if f.Store.CandidateUtteranceCount() < 2 {
		reasons = append(reasons, "too few candidate responses")
	}
	return eval.CompletionResult{Incomplete: len(reasons) > 0, Reasons: reasons}
}
