package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	SubmitSucceeded = "succeeded"
	SubmitFailed    = "failed"
	SubmitInvalid   = "invalid"
	SubmitConflict  = "conflict"
)

// DraftMetrics counts order draft submissions by mode and result.
type DraftMetrics struct {
	submissions *prometheus.CounterVec
	open        prometheus.Gauge
}

func NewDraftMetrics(reg prometheus.Registerer) *DraftMetrics {
	if reg == nil {
		return &DraftMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draft_submissions_total",
		Help: "Order draft submissions by mode (create, edit) and result.",
	}, []string{"mode", "result"})
	open := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "draft_sessions_open",
		Help: "Order builder sessions currently open in this process.",
	})
	reg.MustRegister(submissions, open)
	return &DraftMetrics{submissions: submissions, open: open}
}

func (d *DraftMetrics) IncSubmission(mode, result string) {
	if d == nil || d.submissions == nil {
		return
	}
	d.submissions.WithLabelValues(normalizeLabel(mode), normalizeLabel(result)).Inc()
}

func (d *DraftMetrics) SessionOpened() {
	if d == nil || d.open == nil {
		return
	}
	d.open.Inc()
}

func (d *DraftMetrics) SessionClosed() {
	if d == nil || d.open == nil {
		return
	}
	d.open.Dec()
}
