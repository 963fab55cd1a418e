package livews

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricObservers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_observers_connected",
		Help: "Currently connected observer websockets",
	})

	metricEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_events_published_total",
		Help: "Session events published to the observer feed",
	}, []string{"type"})

	metricObserverDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_observer_drops_total",
		Help: "Events dropped for observers with a full send queue",
	})
)
