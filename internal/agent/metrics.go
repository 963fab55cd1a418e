package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_reconnects_total",
		Help: "Connections established to the agent channel",
	})

	metricCircuitOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_circuit_open_total",
		Help: "Circuit breaker open events",
	})

	metricSendDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_send_deferred_total",
		Help: "Outbound frames queued while the channel was unavailable",
	})

	metricSendRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_send_retries_total",
		Help: "Outbound frames re-queued after a write failure",
	})

	metricBadFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_bad_frames_total",
		Help: "Inbound frames skipped as malformed or unknown",
	})

	metricEventDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_event_drops_total",
		Help: "Events dropped due to slow consumer",
	})
)
