package sequencer

import (
	"errors"
	"strings"
	"testing"

	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

type fakeInstructor struct {
	sent []string
	err  error
}

func (f *fakeInstructor) SendInstruction(text string, forceSpeak bool) error {
	f.sent = append(f.sent, text)
	return f.err
}

type fakeRecorder struct {
	answers map[int]string
	writes  int
}

func (f *fakeRecorder) RecordAnswer(index int, text string) {
	if f.answers == nil {
		f.answers = make(map[int]string)
	}
	f.answers[index] = text
	f.writes++
}

func testConfig() Config {
	return Config{
		MinAnswerWords:  30,
		MaxElaborations: 1,
		Greeting:        "Hi, I'm your AI interviewer. Can you hear me? Is your audio and video setup working fine?",
		ClosingSentence: "Thank you for interviewing with us today. The recruitment team will get back to you.",
	}
}

func threeQuestions() []types.Question {
	return []types.Question{
		{Index: 0, Text: "Tell me about yourself.", Round: "intro", Criteria: []string{"clarity"}},
		{Index: 1, Text: "Describe a hard bug you fixed.", Round: "technical", Criteria: []string{"depth"}},
		{Index: 2, Text: "Why this role?", Round: "motivation", Criteria: []string{"fit"}},
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func newStarted(t *testing.T) (*Sequencer, *fakeInstructor, *fakeRecorder) {
	t.Helper()
	in := &fakeInstructor{}
	rec := &fakeRecorder{}
	s := New(testConfig(), threeQuestions(), in, rec)
	s.Start()
	if s.State() != StateAwaitingSetup {
		t.Fatalf("expected awaiting setup after start, got %s", s.State())
	}
	return s, in, rec
}

func confirmSetup(t *testing.T, s *Sequencer) {
	t.Helper()
	s.HandleCandidateUtterance("yes, all good, I can hear you clearly")
	if s.State() != StateAwaitingAnswer || s.CurrentIndex() != 0 {
		t.Fatalf("expected awaiting answer for q0, got %s/%d", s.State(), s.CurrentIndex())
	}
}

func TestSetupIgnoresOtherUtterances(t *testing.T) {
	s, in, _ := newStarted(t)
	before := len(in.sent)
	s.HandleCandidateUtterance("so what is this interview going to be about exactly")
	if s.State() != StateAwaitingSetup {
		t.Fatalf("non-confirmation must not leave setup state, got %s", s.State())
	}
	if len(in.sent) != before {
		t.Fatalf("non-confirmation must not emit instructions")
	}
}

func TestAdequateAnswerAdvances(t *testing.T) {
	s, _, rec := newStarted(t)
	confirmSetup(t, s)

	s.HandleCandidateUtterance(words(40))
	if s.CurrentIndex() != 1 || s.State() != StateAwaitingAnswer {
		t.Fatalf("expected advance to q1, got %s/%d", s.State(), s.CurrentIndex())
	}
	if got := rec.answers[0]; types.WordCount(got) != 40 {
		t.Fatalf("expected 40-word answer recorded, got %d words", types.WordCount(got))
	}
	if rec.writes != 1 {
		t.Fatalf("expected exactly one record write, got %d", rec.writes)
	}
}

func TestShortAnswerGetsOneElaboration(t *testing.T) {
	s, in, rec := newStarted(t)
	confirmSetup(t, s)

	s.HandleCandidateUtterance(words(12))
	if s.CurrentIndex() != 0 || s.State() != StateAwaitingAnswer {
		t.Fatalf("expected to stay on q0 after elaboration, got %s/%d", s.State(), s.CurrentIndex())
	}
	if in.sent[len(in.sent)-1] != elaborationPrompt {
		t.Fatalf("expected elaboration prompt, got %q", in.sent[len(in.sent)-1])
	}
	if rec.writes != 0 {
		t.Fatalf("answer must not be recorded before advancement")
	}

	// Second short answer advances regardless of combined count
	s.HandleCandidateUtterance(words(5))
	if s.CurrentIndex() != 1 {
		t.Fatalf("expected forced advance after used elaboration, got index %d", s.CurrentIndex())
	}
	if got := types.WordCount(rec.answers[0]); got != 17 {
		t.Fatalf("expected combined 17-word answer, got %d", got)
	}
}

func TestFillerIsNoOp(t *testing.T) {
	s, in, _ := newStarted(t)
	confirmSetup(t, s)
	before := len(in.sent)

	s.HandleCandidateUtterance("yes okay")
	if s.CurrentIndex() != 0 || s.State() != StateAwaitingAnswer {
		t.Fatalf("filler changed state: %s/%d", s.State(), s.CurrentIndex())
	}
	if len(in.sent) != before {
		t.Fatalf("filler must not emit instructions")
	}
}

func TestLastQuestionEntersClosing(t *testing.T) {
	s, in, rec := newStarted(t)
	confirmSetup(t, s)
	s.HandleCandidateUtterance(words(35))
	s.HandleCandidateUtterance(words(35))
	s.HandleCandidateUtterance(words(35))

	if s.State() != StateClosing {
		t.Fatalf("expected closing after last question, got %s", s.State())
	}
	if len(rec.answers) != 3 {
		t.Fatalf("expected 3 recorded answers, got %d", len(rec.answers))
	}
	if last := in.sent[len(in.sent)-1]; !strings.Contains(last, "recruitment team") {
		t.Fatalf("expected closing sentence, got %q", last)
	}
}

func TestEndRequestBypassesAdequacy(t *testing.T) {
	s, _, rec := newStarted(t)
	confirmSetup(t, s)
	s.HandleCandidateUtterance(words(40)) // q0 answered
	s.HandleCandidateUtterance(words(40)) // q1 answered

	s.HandleCandidateUtterance("I want to end the interview now please")
	if s.State() != StateClosing {
		t.Fatalf("expected closing on end request, got %s", s.State())
	}
	if len(rec.answers) != 2 {
		t.Fatalf("expected only 2 answers recorded, got %d", len(rec.answers))
	}
}

func TestEndRequestDuringSetup(t *testing.T) {
	s, _, _ := newStarted(t)
	s.HandleCandidateUtterance("please stop the interview")
	if s.State() != StateClosing {
		t.Fatalf("expected closing on end request during setup, got %s", s.State())
	}
}

func TestInstructionFailureStillAdvances(t *testing.T) {
	in := &fakeInstructor{err: errors.New("channel down")}
	rec := &fakeRecorder{}
	s := New(testConfig(), threeQuestions(), in, rec)
	s.Start()
	s.HandleCandidateUtterance("yes all good")
	s.HandleCandidateUtterance(words(40))
	if s.CurrentIndex() != 1 {
		t.Fatalf("send failure must not block the transition, index=%d", s.CurrentIndex())
	}
}

func TestQuestionTimeoutAdvancesWithPartial(t *testing.T) {
	s, _, rec := newStarted(t)
	confirmSetup(t, s)
	s.HandleCandidateUtterance(words(12)) // short answer, elaboration issued

	s.OnQuestionTimeout(0)
	if s.CurrentIndex() != 1 {
		t.Fatalf("expected timeout to advance, index=%d", s.CurrentIndex())
	}
	if got := types.WordCount(rec.answers[0]); got != 12 {
		t.Fatalf("expected partial answer persisted, got %d words", got)
	}

	// Stale fire for an already-finished question is a no-op
	s.OnQuestionTimeout(0)
	if s.CurrentIndex() != 1 || rec.writes != 1 {
		t.Fatalf("stale timeout must be a no-op")
	}
}

func TestIndexMonotoneAndBounded(t *testing.T) {
	s, _, _ := newStarted(t)
	confirmSetup(t, s)
	prev := 0
	for i := 0; i < 10; i++ {
		s.HandleCandidateUtterance(words(40))
		if s.CurrentIndex() < prev {
			t.Fatalf("index regressed: %d -> %d", prev, s.CurrentIndex())
		}
		if s.CurrentIndex() >= s.QuestionCount() {
			t.Fatalf("index exceeded question count")
		}
		prev = s.CurrentIndex()
	}
}

func TestScenarioThreeQuestionPartial(t *testing.T) {
	s, in, rec := newStarted(t)
	confirmSetup(t, s)

	// Q1: 40 words, advances directly, no elaboration
	s.HandleCandidateUtterance(words(40))
	if s.CurrentIndex() != 1 {
		t.Fatalf("expected q1 open, got %d", s.CurrentIndex())
	}

	// Filler on Q2: unchanged
	s.HandleCandidateUtterance("yes okay")
	if s.CurrentIndex() != 1 {
		t.Fatalf("filler moved the index")
	}

	// 12 words: elaboration, state unchanged
	s.HandleCandidateUtterance(words(12))
	if s.CurrentIndex() != 1 || in.sent[len(in.sent)-1] != elaborationPrompt {
		t.Fatalf("expected elaboration on q1")
	}

	// 5 more words (combined 17 < 30, elaboration used): advances to Q3
	s.HandleCandidateUtterance(words(5))
	if s.CurrentIndex() != 2 {
		t.Fatalf("expected forced advance to q2, got %d", s.CurrentIndex())
	}

	// End request mid-Q3: closing, only two answers recorded
	s.HandleCandidateUtterance("I want to end the interview")
	if s.State() != StateClosing {
		t.Fatalf("expected closing, got %s", s.State())
	}
	if _, ok := rec.answers[2]; ok || len(rec.answers) != 2 {
		t.Fatalf("expected answers for indices 0 and 1 only, got %v", rec.answers)
	}
}
