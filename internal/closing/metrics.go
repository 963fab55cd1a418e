package closing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricClosingDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_closing_detected_total",
		Help: "Closing phrases detected in agent speech",
	})

	metricAutoEnds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_auto_ends_total",
		Help: "Sessions force-terminated by the auto-end countdown",
	})
)
