package finalize

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTerminations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_terminations_total",
		Help: "Session terminations by reason",
	}, []string{"reason"})

	metricScreenshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_screenshot_failures_total",
		Help: "Best-effort screenshot uploads that failed",
	})
)
