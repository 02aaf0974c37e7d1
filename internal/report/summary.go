package report

import (
	"fmt"
	"io"
	"time"
)

// Summary aggregates a report for terminal output, distinguishing succeeded, failed, skipped (due to an upstream
// failure), and not-selected units.
type Summary struct {
	TotalUnits     int
	UnitsSucceeded int
	UnitsFailed    int
	UnitsSkipped   int
	UnitsExcluded  int

	firstRunStart *time.Time
	lastRunEnd    *time.Time
}

// Summarize folds the report's runs into a Summary.
func (r *Report) Summarize() *Summary {
	summary := &Summary{}

	for _, run := range r.Runs() {
		summary.TotalUnits++

		switch run.Result {
		case ResultSucceeded:
			summary.UnitsSucceeded++
		case ResultFailed:
			summary.UnitsFailed++
		case ResultSkipped:
			summary.UnitsSkipped++
		case ResultExcluded:
			summary.UnitsExcluded++
		}

		if !run.Started.IsZero() && (summary.firstRunStart == nil || run.Started.Before(*summary.firstRunStart)) {
			started := run.Started
			summary.firstRunStart = &started
		}

		if !run.Ended.IsZero() && (summary.lastRunEnd == nil || run.Ended.After(*summary.lastRunEnd)) {
			ended := run.Ended
			summary.lastRunEnd = &ended
		}
	}

	return summary
}

// Duration returns the wall time between the first run start and the last run end.
func (s *Summary) Duration() time.Duration {
	if s.firstRunStart == nil || s.lastRunEnd == nil {
		return 0
	}

	return s.lastRunEnd.Sub(*s.firstRunStart)
}

// Write renders the summary, and when the report carries failures or skips, the per-unit outcomes too.
func (r *Report) Write(w io.Writer) error {
	summary := r.Summarize()

	if _, err := fmt.Fprintf(w, "\nRun summary: %d units (%s)\n", summary.TotalUnits, summary.Duration().Round(time.Millisecond)); err != nil {
		return err
	}

	lines := []struct {
		label string
		count int
	}{
		{"succeeded", summary.UnitsSucceeded},
		{"failed", summary.UnitsFailed},
		{"skipped", summary.UnitsSkipped},
		{"not selected", summary.UnitsExcluded},
	}

	for _, line := range lines {
		if line.count == 0 {
			continue
		}

		if _, err := fmt.Fprintf(w, "  %-12s %d\n", line.label, line.count); err != nil {
			return err
		}
	}

	if summary.UnitsFailed == 0 && summary.UnitsSkipped == 0 {
		return nil
	}

	for _, run := range r.Runs() {
		if run.Result == ResultSucceeded || run.Result == ResultExcluded {
			continue
		}

		if _, err := fmt.Fprintf(w, "  - %s: %s (%s)\n", run.Name, run.Result, run.Reason); err != nil {
			return err
		}
	}

	return nil
}
