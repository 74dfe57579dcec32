package analytics

import (
	"testing"
	"time"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/model"
)

func outcome(proxy string, status model.Status, rt float64) model.ProbeOutcome {
	o := model.ProbeOutcome{Proxy: proxy, Status: status}
	if status == model.StatusWorking {
		o.ResponseTime = &rt
	} else {
		o.Error = "connection refused"
	}
	return o
}

func TestAggregate_Counts(t *testing.T) {
	results := []model.ProbeOutcome{
		outcome("a:1", model.StatusWorking, 0.1),
		outcome("b:2", model.StatusFailed, 0),
		outcome("c:3", model.StatusWorking, 0.3),
	}

	report := Aggregate(results)

	if report.Total != 3 || report.Working != 2 || report.Failed != 1 {
		t.Fatalf("bad counts: %+v", report)
	}
	if report.Total != report.Working+report.Failed {
		t.Fatalf("invariant violated: %+v", report)
	}
	if report.SuccessRate != 66.67 {
		t.Fatalf("want 66.67, got %v", report.SuccessRate)
	}
	for i, r := range results {
		if report.Results[i] != r {
			t.Fatalf("results reordered at %d", i)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(nil)
	if report.Total != 0 || report.SuccessRate != 0.0 {
		t.Fatalf("empty input: %+v", report)
	}
}

func TestAggregate_AllWorking(t *testing.T) {
	report := Aggregate([]model.ProbeOutcome{outcome("a:1", model.StatusWorking, 0.5)})
	if report.SuccessRate != 100.0 {
		t.Fatalf("want 100.0, got %v", report.SuccessRate)
	}
}

func TestCompute(t *testing.T) {
	report := Aggregate([]model.ProbeOutcome{
		outcome("a:1", model.StatusWorking, 0.2),
		outcome("a:1", model.StatusWorking, 0.4),
		outcome("b:2", model.StatusFailed, 0),
	})

	stats := Compute(report, 1500*time.Millisecond)

	if stats.TotalProxies != 3 || stats.WorkingProxies != 2 || stats.FailedProxies != 1 {
		t.Fatalf("bad counts: %+v", stats)
	}
	if stats.UniqueProxies != 2 {
		t.Fatalf("want 2 unique, got %d", stats.UniqueProxies)
	}
	if stats.AvgResponseTimeSec != 0.3 {
		t.Fatalf("want avg 0.3, got %v", stats.AvgResponseTimeSec)
	}
	if stats.TotalProcessingTimeMs != 1500 {
		t.Fatalf("want 1500ms, got %d", stats.TotalProcessingTimeMs)
	}
}
