package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "winner_claim_expiry"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "lottodesk_cron_job_success_total", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "lottodesk_cron_job_failure_total", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "lottodesk_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestCacheMetricsCountsReadsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCacheMetrics(reg)
	metrics.ObserveRead("vendors", CacheOutcomeHit)
	metrics.ObserveRead("vendors", CacheOutcomeHit)
	metrics.ObserveRead("vendors", CacheOutcomeMiss)
	metrics.IncRollback("vendors")
	metrics.SetEntries(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "lottodesk_query_cache_reads_total")
	if mf == nil {
		t.Fatal("reads metric missing")
	}
	var hits float64
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), "outcome", CacheOutcomeHit) {
			hits = metric.GetCounter().GetValue()
		}
	}
	if hits != 2 {
		t.Fatalf("expected 2 hits, got %f", hits)
	}
	if got, err := fetchCounterValue(mfs, "lottodesk_query_cache_optimistic_rollbacks_total", "resource", "vendors"); err != nil || got != 1 {
		t.Fatalf("expected one rollback, got %f (%v)", got, err)
	}
	entries := findMetricFamily(mfs, "lottodesk_query_cache_entries")
	if entries == nil || entries.GetMetric()[0].GetGauge().GetValue() != 3 {
		t.Fatal("expected entries gauge of 3")
	}
}

func TestNilCacheMetricsAreNoops(t *testing.T) {
	var metrics *CacheMetrics
	metrics.ObserveRead("vendors", CacheOutcomeHit)
	metrics.IncFetchError("vendors")
	metrics.IncInvalidation("vendors")
	metrics.IncRollback("vendors")
	metrics.SetEntries(1)
	NewCacheMetrics(nil).ObserveRead("users", CacheOutcomeMiss)
}
