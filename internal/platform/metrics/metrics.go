package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrantsCreated prometheus.Counter
	MatchesCommitted   prometheus.Counter
	PairConflicts      prometheus.Counter
	SelfHeals          prometheus.Counter
	RequestLatency     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "match_registrants_created_total",
			Help: "Total number of registrants created",
		}),
		MatchesCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "match_pairs_committed_total",
			Help: "Total number of pairings committed",
		}),
		PairConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "match_pair_conflicts_total",
			Help: "Pair commits that lost a candidate to a concurrent request and re-searched",
		}),
		SelfHeals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "match_self_heals_total",
			Help: "Registrants unmatched because their recorded partner no longer exists",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "match_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
}
