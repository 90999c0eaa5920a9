package sessions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session metrics
var (
	ChatSubmitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parsa",
			Subsystem: "chat",
			Name:      "submits_total",
			Help:      "Chat submissions accepted, by mode",
		},
		[]string{"mode"},
	)

	ChatFragmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parsa",
			Subsystem: "chat",
			Name:      "fragments_total",
			Help:      "Non-empty fragments appended to model messages",
		},
	)

	// outcome is "finalized" or "failed"
	ChatStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parsa",
			Subsystem: "chat",
			Name:      "streams_total",
			Help:      "Completed chat streams by outcome",
		},
		[]string{"outcome"},
	)

	ChatStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parsa",
			Subsystem: "chat",
			Name:      "stream_duration_seconds",
			Help:      "Time from submission to the final state of the model message",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"mode"},
	)

	StudioRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parsa",
			Subsystem: "studio",
			Name:      "requests_total",
			Help:      "Image and grounded search requests",
		},
		[]string{"operation", "status"},
	)

	StudioDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parsa",
			Subsystem: "studio",
			Name:      "duration_seconds",
			Help:      "Gateway call duration for studio operations",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "parsa",
			Subsystem: "registry",
			Name:      "conversations",
			Help:      "Conversations currently held in memory",
		},
	)
)
