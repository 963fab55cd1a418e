package sequencer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_state_transitions_total",
		Help: "Sequencer state transitions",
	}, []string{"from", "to"})

	metricElaborations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_elaboration_prompts_total",
		Help: "Elaboration prompts issued for short answers",
	})

	metricQuestionTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_question_timeouts_total",
		Help: "Questions advanced by the per-question timeout",
	})

	metricInstructionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_instruction_send_failures_total",
		Help: "Forced instructions that failed to send on first attempt",
	})
)
