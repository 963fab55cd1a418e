// Package classify maps a single candidate utterance to one of four kinds
// used by the question sequencer. Classification is a pure function over
// the utterance text and a small context snapshot; it never mutates state.
package classify

import (
	"strings"

	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

// Kind is the classification outcome.
type Kind int

const (
	// Filler is noise: acknowledgements, greetings, fragments. Fillers
	// must not affect sequencer state. Unparseable input lands here too.
	Filler Kind = iota
	// SetupConfirmation is a positive reply to the audio/video setup check.
	SetupConfirmation
	// EndRequest is an explicit ask to stop the interview. Highest priority.
	EndRequest
	// RealAnswer is substantive answer content, carrying its word count.
	RealAnswer
)

func (k Kind) String() string {
	switch k {
	case Filler:
		return "filler"
	case SetupConfirmation:
		return "setup_confirmation"
	case EndRequest:
		return "end_request"
	case RealAnswer:
		return "real_answer"
	}
	return "unknown"
}

// Context is the sequencer state visible to classification.
type Context struct {
	// LastQuestionAsked is the most recent agent prompt, used to gate
	// setup-confirmation vocabulary to the setup-check phase.
	LastQuestionAsked string
	// AwaitingResponse reports whether a question is currently open.
	AwaitingResponse bool
}

// Result carries the kind plus the word count for adequacy scoring.
type Result struct {
	Kind      Kind
	WordCount int
}

// Minimum whitespace-delimited tokens for an utterance to count as a
// real answer.
const minRealAnswerWords = 5

// fillerTokens are acknowledgement/greeting tokens that never carry
// answer content on their own.
var fillerTokens = []string{
	"ok", "okay", "yes", "yeah", "yep", "no", "nope", "hmm", "mhm", "mm",
	"uh", "um", "huh", "hello", "hi", "hey", "thanks", "thank you",
	"sure", "right", "alright", "got it", "fine", "cool", "great", "nice",
	"good", "perfect", "i see", "oh",
}

// setupVocabulary marks an agent prompt as the audio/video setup check.
var setupVocabulary = []string{
	"audio", "video", "hear", "see me", "setup", "working fine",
}

// confirmVocabulary are candidate phrases accepted as a setup confirmation.
var confirmVocabulary = []string{
	"yes", "yeah", "yep", "ready", "all good", "audio is", "video is",
	"i can hear", "i can see", "working", "loud and clear", "sounds good",
	"perfect", "crystal clear", "let's start", "lets start", "let's begin",
}

// endPhrases are explicit requests to stop the interview.
var endPhrases = []string{
	"end the interview", "stop the interview", "finish the interview",
	"end this interview", "stop this interview", "quit the interview",
	"terminate the interview", "i want to end", "i want to stop",
	"i would like to end", "i'd like to end", "can we end", "please end",
	"wrap up the interview",
}

// Classify maps one utterance to a Result. Priority: EndRequest beats
// everything; SetupConfirmation only applies while the last agent prompt
// was a setup check; Filler beats RealAnswer; anything ambiguous is Filler.
func Classify(text string, ctx Context) Result {
	norm := types.NormalizeText(text)
	words := types.WordCount(norm)

	if norm == "" {
		return Result{Kind: Filler}
	}

	for _, p := range endPhrases {
		if strings.Contains(norm, p) {
			return Result{Kind: EndRequest, WordCount: words}
		}
	}

	if isSetupCheck(ctx.LastQuestionAsked) {
		for _, p := range confirmVocabulary {
			if strings.Contains(norm, p) {
				return Result{Kind: SetupConfirmation, WordCount: words}
			}
		}
	}

	if isFiller(norm) {
		return Result{Kind: Filler, WordCount: words}
	}

	if words >= minRealAnswerWords {
		return Result{Kind: RealAnswer, WordCount: words}
	}

	// Too short to be an answer, not on any list: treat as noise.
	return Result{Kind: Filler, WordCount: words}
}

// isFiller applies the stop-list rules to normalized text: exact stop
// token, length <= 3, or a stop-token prefix on a short utterance.
func isFiller(norm string) bool {
	if len(norm) <= 3 {
		return true
	}
	for _, tok := range fillerTokens {
		if norm == tok {
			return true
		}
		if strings.HasPrefix(norm, tok) && len(norm) < 15 {
			return true
		}
	}
	return false
}

// isSetupCheck reports whether an agent prompt is the audio/video check.
func isSetupCheck(prompt string) bool {
	p := strings.ToLower(prompt)
	for _, v := range setupVocabulary {
		if strings.Contains(p, v) {
			return true
		}
	}
	return false
}
