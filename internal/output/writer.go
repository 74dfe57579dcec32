package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/analytics"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/model"
)

// PrintResultsTable prints a human-readable table of per-proxy results.
func PrintResultsTable(w io.Writer, results []model.ProbeOutcome) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PROXY\tSTATUS\tTIME(s)\tIP\tCOUNTRY\tCITY\tERROR")

	for _, r := range results {
		rt := "-"
		if r.ResponseTime != nil {
			rt = fmt.Sprintf("%.2f", *r.ResponseTime)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Proxy,
			r.Status,
			rt,
			dashIfEmpty(r.IPAddress),
			dashIfEmpty(r.Country),
			dashIfEmpty(r.City),
			dashIfEmpty(r.Error),
		)
	}

	tw.Flush()
}

// PrintSummary prints the aggregated batch stats.
func PrintSummary(w io.Writer, stats analytics.Stats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total proxies:       %d\n", stats.TotalProxies)
	fmt.Fprintf(w, "  Unique proxies:      %d\n", stats.UniqueProxies)
	fmt.Fprintf(w, "  Working proxies:     %d\n", stats.WorkingProxies)
	fmt.Fprintf(w, "  Success rate:        %.2f%%\n", stats.SuccessRatePct)
	fmt.Fprintf(w, "  Avg response (ok):   %.2f s\n", stats.AvgResponseTimeSec)
	fmt.Fprintf(w, "  Batch time:          %.2f s\n", float64(stats.TotalProcessingTimeMs)/1000.0)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// WriteFile writes the report + summary stats to a file in json or csv
// format.
func WriteFile(path, format string, report model.BatchReport, stats analytics.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "json":
		return writeJSON(f, report, stats)
	case "csv":
		return writeCSV(f, report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeJSON(w io.Writer, report model.BatchReport, stats analytics.Stats) error {
	payload := struct {
		model.BatchReport
		Summary analytics.Stats `json:"summary"`
	}{
		BatchReport: report,
		Summary:     stats,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// writeCSV writes per-proxy rows; the summary is not included in CSV.
func writeCSV(w io.Writer, report model.BatchReport) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"proxy", "status", "response_time", "ip_address", "country", "city", "error"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range report.Results {
		rt := ""
		if r.ResponseTime != nil {
			rt = fmt.Sprintf("%.2f", *r.ResponseTime)
		}
		row := []string{r.Proxy, string(r.Status), rt, r.IPAddress, r.Country, r.City, r.Error}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	return nil
}
