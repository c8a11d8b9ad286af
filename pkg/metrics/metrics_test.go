package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStoreMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStoreMetrics(reg)
	metrics.Observe("products.list", 200, 120*time.Millisecond)
	metrics.Observe("products.list", 0, 10*time.Millisecond)
	metrics.Observe("", 500, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "store_requests_total", map[string]string{"operation": "products.list", "status": "200"}); err != nil {
		t.Fatalf("fetch ok counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 200 count=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "store_requests_total", map[string]string{"operation": "products.list", "status": "transport_error"}); err != nil {
		t.Fatalf("fetch transport counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transport_error count=1, got %f", got)
	}

	if _, err := fetchCounterValue(mfs, "store_requests_total", map[string]string{"operation": "unknown", "status": "500"}); err != nil {
		t.Fatalf("expected empty operation to be labelled unknown: %v", err)
	}

	if got, err := fetchHistogramSum(mfs, "store_request_duration_seconds", map[string]string{"operation": "products.list"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestDraftMetricsCountsSubmissions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDraftMetrics(reg)
	metrics.IncSubmission("create", SubmitSucceeded)
	metrics.IncSubmission("create", SubmitSucceeded)
	metrics.IncSubmission("edit", SubmitConflict)
	metrics.SessionOpened()
	metrics.SessionOpened()
	metrics.SessionClosed()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "draft_submissions_total", map[string]string{"mode": "create", "result": SubmitSucceeded}); err != nil {
		t.Fatalf("fetch submissions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 successful submissions, got %f", got)
	}
	mf := findMetricFamily(mfs, "draft_sessions_open")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("expected open sessions gauge")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Fatalf("expected 1 open session, got %f", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var store *StoreMetrics
	store.Observe("x", 200, time.Second)
	var drafts *DraftMetrics
	drafts.IncSubmission("create", SubmitFailed)
	drafts.SessionOpened()

	NewStoreMetrics(nil).Observe("x", 200, time.Second)
	NewDraftMetrics(nil).SessionClosed()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
