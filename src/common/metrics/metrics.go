package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_total",
		Help: "Completed fetches by the source tier that produced the snapshot.",
	}, []string{"source"})

	FetchStrategyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_strategy_failures_total",
		Help: "Failed fetch attempts by strategy and failure kind.",
	}, []string{"strategy", "kind"})

	FetchExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetch_exhausted_total",
		Help: "Chain walks where every strategy failed and stale data was served.",
	})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetch_duration_seconds",
		Help:    "Duration of a full chain walk.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently registered dashboard connections.",
	})

	WebsocketBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_broadcasts_total",
		Help: "Snapshot broadcasts fanned out to connected clients.",
	})

	WebsocketSendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_send_failures_total",
		Help: "Writes that failed and evicted their connection.",
	})
)
