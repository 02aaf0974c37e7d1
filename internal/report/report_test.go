package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/report"
)

func TestAddRunRejectsDuplicates(t *testing.T) {
	t.Parallel()

	r := report.NewReport()

	require.NoError(t, r.AddRun(report.NewRun("vpc")))

	err := r.AddRun(report.NewRun("vpc"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, report.ErrRunAlreadyExists))
}

func TestEndRunDefaultsToSucceeded(t *testing.T) {
	t.Parallel()

	r := report.NewReport()
	require.NoError(t, r.AddRun(report.NewRun("vpc")))

	require.NoError(t, r.EndRun("vpc"))

	run := r.GetRun("vpc")
	require.NotNil(t, run)
	assert.Equal(t, report.ResultSucceeded, run.Result)
	assert.False(t, run.Ended.IsZero())
}

func TestEndRunUnknownNameFails(t *testing.T) {
	t.Parallel()

	r := report.NewReport()

	err := r.EndRun("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, report.ErrRunNotFound))
}

func TestSummarizeCountsResults(t *testing.T) {
	t.Parallel()

	r := report.NewReport()

	require.NoError(t, r.AddRun(report.NewRun("vpc")))
	require.NoError(t, r.EndRun("vpc"))

	require.NoError(t, r.AddRun(report.NewRun("db")))
	require.NoError(t, r.EndRun("db", report.WithResult(report.ResultFailed), report.WithReason(report.ReasonRunError)))

	require.NoError(t, r.AddRun(report.NewRun("api")))
	require.NoError(t, r.EndRun("api", report.WithResult(report.ResultSkipped), report.WithReason(report.ReasonAncestorFailed)))

	require.NoError(t, r.AddRun(report.NewRun("monitoring")))
	require.NoError(t, r.EndRun("monitoring", report.WithResult(report.ResultExcluded), report.WithReason(report.ReasonNotSelected)))

	summary := r.Summarize()

	assert.Equal(t, 4, summary.TotalUnits)
	assert.Equal(t, 1, summary.UnitsSucceeded)
	assert.Equal(t, 1, summary.UnitsFailed)
	assert.Equal(t, 1, summary.UnitsSkipped)
	assert.Equal(t, 1, summary.UnitsExcluded)
}

func TestWriteRendersFailuresAndSkips(t *testing.T) {
	t.Parallel()

	r := report.NewReport()

	require.NoError(t, r.AddRun(report.NewRun("db")))
	require.NoError(t, r.EndRun("db", report.WithResult(report.ResultFailed), report.WithReason(report.ReasonRunError)))

	require.NoError(t, r.AddRun(report.NewRun("api")))
	require.NoError(t, r.EndRun("api", report.WithResult(report.ResultSkipped), report.WithReason(report.ReasonAncestorFailed)))

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))

	out := buf.String()
	assert.Contains(t, out, "2 units")
	assert.Contains(t, out, "db: failed (run error)")
	assert.Contains(t, out, "api: skipped (ancestor failed)")
}
