package transcript

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricUtterances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_utterances_total",
		Help: "Utterances appended to the transcript by speaker",
	}, []string{"speaker"})

	metricDuplicatesMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcript_duplicates_merged_total",
		Help: "Consecutive duplicate utterances merged instead of appended",
	})

	metricAnswersRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcript_answers_recorded_total",
		Help: "Answer record upserts",
	})

	metricSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcript_snapshots_total",
		Help: "Durable snapshots written",
	})

	metricSnapshotErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcript_snapshot_errors_total",
		Help: "Snapshot writes that failed",
	})
)
