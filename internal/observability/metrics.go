package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultAccepted  = "accepted"
	ResultDuplicate = "duplicate"
	ResultCapacity  = "capacity"
	ResultMalformed = "malformed"

	ResultDelivered = "delivered"
	ResultFallback  = "signal_fallback"
	ResultFailed    = "failed"
)

var (
	registerOnce sync.Once

	announcements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mqmesh",
			Subsystem: "registry",
			Name:      "announcements_total",
			Help:      "Announcements drained from the own channel, by outcome.",
		},
		[]string{"node", "result"},
	)
	neighbours = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mqmesh",
			Subsystem: "registry",
			Name:      "neighbours",
			Help:      "Current number of known neighbours.",
		},
		[]string{"node"},
	)
	wakeups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mqmesh",
			Subsystem: "channel",
			Name:      "wakeups_total",
			Help:      "Own-channel wake-ups handled by the event loop.",
		},
		[]string{"node"},
	)
	interrupts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mqmesh",
			Subsystem: "cascade",
			Name:      "interrupts_total",
			Help:      "Interrupts forwarded to neighbours, by outcome.",
		},
		[]string{"node", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(announcements, neighbours, wakeups, interrupts)
	})
}

func RecordAnnouncement(node, result string, size int) {
	RegisterMetrics()
	announcements.WithLabelValues(node, result).Inc()
	neighbours.WithLabelValues(node).Set(float64(size))
}

func RecordNeighbours(node string, size int) {
	RegisterMetrics()
	neighbours.WithLabelValues(node).Set(float64(size))
}

func RecordWakeup(node string) {
	RegisterMetrics()
	wakeups.WithLabelValues(node).Inc()
}

func RecordInterrupt(node, result string) {
	RegisterMetrics()
	interrupts.WithLabelValues(node, result).Inc()
}
