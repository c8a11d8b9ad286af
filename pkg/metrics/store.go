package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records calls made to the remote record store.
type StoreMetrics struct {
	duration *prometheus.HistogramVec
	outcome  *prometheus.CounterVec
}

// NewStoreMetrics registers the record store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_request_duration_seconds",
		Help:    "Duration of record store requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_requests_total",
		Help: "Record store requests by operation and response status.",
	}, []string{"operation", "status"})
	reg.MustRegister(duration, outcome)
	return &StoreMetrics{
		duration: duration,
		outcome:  outcome,
	}
}

// Observe records one completed call. A zero status means the request never got a response.
func (s *StoreMetrics) Observe(operation string, status int, duration time.Duration) {
	if s == nil || s.duration == nil || s.outcome == nil {
		return
	}
	op := normalizeLabel(operation)
	s.duration.WithLabelValues(op).Observe(duration.Seconds())
	s.outcome.WithLabelValues(op, statusLabel(status)).Inc()
}

func statusLabel(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
