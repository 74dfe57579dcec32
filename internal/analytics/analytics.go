package analytics

import (
	"math"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/model"
)

// Aggregate reduces an ordered collection of outcomes into a BatchReport.
// Pure function: counts by status and derives the success rate; Results is
// the input slice unchanged, in the same order.
func Aggregate(results []model.ProbeOutcome) model.BatchReport {
	report := model.BatchReport{
		Results: results,
		Total:   len(results),
	}

	for _, r := range results {
		if r.Status == model.StatusWorking {
			report.Working++
		}
	}
	report.Failed = report.Total - report.Working

	if report.Total > 0 {
		report.SuccessRate = round2(float64(report.Working) / float64(report.Total) * 100.0)
	}
	return report
}

// Stats extends a BatchReport with run-level analytics for the CLI
// summary.
type Stats struct {
	TotalProxies          int     `json:"total_proxies"`
	UniqueProxies         int     `json:"unique_proxies"`
	WorkingProxies        int     `json:"working_proxies"`
	FailedProxies         int     `json:"failed_proxies"`
	SuccessRatePct        float64 `json:"success_rate_pct"`
	AvgResponseTimeSec    float64 `json:"avg_response_time_sec"`
	TotalProcessingTimeMs int64   `json:"total_processing_time_ms"`
}

// Compute derives summary statistics for a finished batch run.
func Compute(report model.BatchReport, totalDuration time.Duration) Stats {
	stats := Stats{
		TotalProxies:          report.Total,
		WorkingProxies:        report.Working,
		FailedProxies:         report.Failed,
		SuccessRatePct:        report.SuccessRate,
		TotalProcessingTimeMs: totalDuration.Milliseconds(),
	}

	unique := mapset.NewThreadUnsafeSet[string]()

	var latencySum float64
	var latencyCount int

	for _, r := range report.Results {
		unique.Add(strings.TrimSpace(r.Proxy))

		if r.Status == model.StatusWorking && r.ResponseTime != nil {
			latencySum += *r.ResponseTime
			latencyCount++
		}
	}

	stats.UniqueProxies = unique.Cardinality()
	if latencyCount > 0 {
		stats.AvgResponseTimeSec = round2(latencySum / float64(latencyCount))
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
