package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_panel",
			Name:      "backend_requests_total",
			Help:      "Count of schedule backend calls by operation and result kind.",
		},
		[]string{"op", "result"},
	)

	reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_panel",
			Name:      "schedule_reconcile_total",
			Help:      "Count of schedule reconciliation runs by outcome.",
		},
		[]string{"outcome"},
	)

	openEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_panel",
			Name:      "open_state_evaluations_total",
			Help:      "Count of open/closed evaluations by source.",
		},
		[]string{"source"},
	)

	broadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_panel",
			Name:      "ws_broadcasts_total",
			Help:      "Count of messages published to websocket subscribers by action.",
		},
		[]string{"action"},
	)

	wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "delivery_panel",
		Name:      "ws_clients",
		Help:      "Websocket clients currently attached.",
	})
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(backendRequests, reconciliations, openEvaluations, broadcasts, wsClients)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncBackendRequest(op, result string) {
	backendRequests.WithLabelValues(op, result).Inc()
}

func IncReconcile(outcome string) {
	reconciliations.WithLabelValues(outcome).Inc()
}

func IncOpenEvaluation(source string) {
	openEvaluations.WithLabelValues(source).Inc()
}

func IncBroadcast(action string) {
	broadcasts.WithLabelValues(action).Inc()
}

// SetWebsocketClients records the current number of attached websocket clients.
func SetWebsocketClients(n int) {
	wsClients.Set(float64(n))
}
