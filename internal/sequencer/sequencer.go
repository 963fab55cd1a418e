// Package sequencer owns the interview question state machine: which
// question is open, whether its answer is adequate, and what instruction
// the agent should be forced to speak next.
//
// A Sequencer is not safe for concurrent use. It is owned by the session
// event loop and mutated only from that goroutine.
package sequencer

import (
	"fmt"
	"log"
	"strings"

	"github.com/hire-genai/Hire-genAi-sub000/internal/classify"
	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

type State int

const (
	StateIdle State = iota
	StateAwaitingSetup
	StateAwaitingAnswer
	StateClosing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSetup:
		return "awaiting_setup"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateClosing:
		return "closing"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Instructor sends a forced-response instruction to the agent. A send
// error never blocks a transition; the transport retries on its own.
type Instructor interface {
	SendInstruction(text string, forceSpeak bool) error
}

// Recorder persists a final answer for a question index.
type Recorder interface {
	RecordAnswer(index int, text string)
}

type Config struct {
	MinAnswerWords  int
	MaxElaborations int
	Greeting        string
	ClosingSentence string
}

const elaborationPrompt = "That's helpful. Could you elaborate on that a bit more, with a concrete example?"

type Sequencer struct {
	cfg       Config
	questions []types.Question
	instr     Instructor
	rec       Recorder

	state      State
	index      int
	lastPrompt string

	// Per-question elaboration scratch; valid only while a question is
	// open and discarded on advancement.
	parts       []string
	elabPrompts int
}

func New(cfg Config, questions []types.Question, instr Instructor, rec Recorder) *Sequencer {
	return &Sequencer{cfg: cfg, questions: questions, instr: instr, rec: rec}
}

func (s *Sequencer) State() State      { return s.state }
func (s *Sequencer) CurrentIndex() int { return s.index }
func (s *Sequencer) QuestionCount() int { return len(s.questions) }

// ClassifierContext snapshots the state visible to answer classification.
func (s *Sequencer) ClassifierContext() classify.Context {
	return classify.Context{
		LastQuestionAsked: s.lastPrompt,
		AwaitingResponse:  s.state == StateAwaitingAnswer,
	}
}

// Start issues the greeting/setup-check instruction and begins waiting
// for a setup confirmation. No timeout here: the agent's own greeting
// script re-prompts an unresponsive candidate.
func (s *Sequencer) Start() {
	if s.state != StateIdle {
		return
	}
	s.emit(s.cfg.Greeting)
	s.setState(StateAwaitingSetup)
}

// HandleCandidateUtterance classifies one completed candidate utterance
// and applies the resulting transition. Fillers and wrong-state setup
// vocabulary are no-ops. Returns the classification for observers.
func (s *Sequencer) HandleCandidateUtterance(text string) classify.Result {
	res := classify.Classify(text, s.ClassifierContext())

	// An explicit end request wins from any state, bypassing adequacy.
	if res.Kind == classify.EndRequest {
		if s.state != StateClosing && s.state != StateDone {
			log.Printf("[sequencer] end requested by candidate at question=%d", s.index)
			s.emit(s.cfg.ClosingSentence)
			s.setState(StateClosing)
		}
		return res
	}

	switch s.state {
	case StateAwaitingSetup:
		if res.Kind == classify.SetupConfirmation {
			s.askCurrentQuestion()
		}
	case StateAwaitingAnswer:
		if res.Kind == classify.RealAnswer {
			s.handleRealAnswer(text)
		}
	}
	return res
}

// OnQuestionTimeout advances past an open question whose configurable
// timeout expired, persisting whatever partial answer accumulated. The
// index guard makes stale timer fires harmless.
func (s *Sequencer) OnQuestionTimeout(index int) {
	if s.state != StateAwaitingAnswer || index != s.index {
		return
	}
	log.Printf("[sequencer] question timeout index=%d combined_words=%d", s.index, s.combinedWords())
	metricQuestionTimeouts.Inc()
	s.finishQuestion()
}

// MarkDone records the terminal transition out of Closing. Idempotent.
func (s *Sequencer) MarkDone() {
	if s.state == StateDone {
		return
	}
	s.setState(StateDone)
}

func (s *Sequencer) handleRealAnswer(text string) {
	s.parts = append(s.parts, strings.TrimSpace(text))
	combined := s.combinedWords()
	if combined >= s.cfg.MinAnswerWords || s.elabPrompts >= s.cfg.MaxElaborations {
		s.finishQuestion()
		return
	}
	// One elaboration allowance per question.
	s.elabPrompts++
	metricElaborations.Inc()
	log.Printf("[sequencer] elaboration prompt index=%d combined_words=%d", s.index, combined)
	s.emit(elaborationPrompt)
}

// finishQuestion persists the combined answer, discards the elaboration
// scratch, and either asks the next question or enters Closing.
func (s *Sequencer) finishQuestion() {
	answer := strings.Join(s.parts, " ")
	s.rec.RecordAnswer(s.index, answer)
	s.parts = nil
	s.elabPrompts = 0

	if s.index+1 < len(s.questions) {
		s.index++
		s.askCurrentQuestion()
		return
	}
	s.emit(s.cfg.ClosingSentence)
	s.setState(StateClosing)
}

// askCurrentQuestion emits the open question and enters AwaitingAnswer.
// With an empty question list the interview closes immediately.
func (s *Sequencer) askCurrentQuestion() {
	if len(s.questions) == 0 {
		s.emit(s.cfg.ClosingSentence)
		s.setState(StateClosing)
		return
	}
	q := s.questions[s.index]
	s.emit(fmt.Sprintf("Please ask the candidate exactly this question: %s", q.Text))
	s.lastPrompt = q.Text
	s.setState(StateAwaitingAnswer)
}

func (s *Sequencer) combinedWords() int {
	n := 0
	for _, p := range s.parts {
		n += types.WordCount(p)
	}
	return n
}

// emit sends a forced instruction. On failure the state still advances;
// the transport keeps the instruction queued and retries when the
// channel comes back.
func (s *Sequencer) emit(text string) {
	s.lastPrompt = text
	if s.instr == nil {
		return
	}
	if err := s.instr.SendInstruction(text, true); err != nil {
		log.Printf("[sequencer] instruction send failed (will retry on transport): %v", err)
		metricInstructionFailures.Inc()
	}
}

func (s *Sequencer) setState(to State) {
	from := s.state
	if from == to {
		return
	}
	metricStateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	s.state = to
}
