package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteledger_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "siteledger_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	recordMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteledger_record_mutations_total",
		Help: "Count of record store mutations by entity kind and operation",
	}, []string{"kind", "op"})

	snapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteledger_snapshot_saves_total",
		Help: "Count of snapshot persistence attempts by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, path, status string, dur time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(dur.Seconds())
}

// RecordMutation counts a create/update/delete on one entity collection.
func RecordMutation(kind, op string) {
	recordMutations.WithLabelValues(kind, op).Inc()
}

// RecordSnapshotSave counts a snapshot write with result "ok" or "error".
func RecordSnapshotSave(result string) {
	snapshotSaves.WithLabelValues(result).Inc()
}
