package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveConnections counts sockets in the Active state on this node.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "neuroq_ws_active_connections",
		Help: "Live websocket connections",
	})

	AuthRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neuroq_ws_auth_rejected_total",
		Help: "Connections closed with policy violation",
	})

	// InboundFrames labels: type = message | typing | echo | invalid
	InboundFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neuroq_ws_inbound_frames_total",
		Help: "Inbound frames by dispatched type",
	}, []string{"type"})

	SendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neuroq_ws_send_failures_total",
		Help: "Outbound frame write failures",
	}, []string{"op"})

	TriageOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neuroq_triage_outcomes_total",
		Help: "Triage results by label, severity and status",
	}, []string{"label", "severity", "status"})

	TriageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "neuroq_triage_duration_seconds",
		Help:    "Triage engine latency",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01},
	})
)

func Handler() http.Handler { return promhttp.Handler() }
