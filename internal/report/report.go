// Package report collects per-unit run data and renders a summary of a whole run.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runstack-io/runstack/internal/errors"
)

// Result captures how a run ended.
type Result string

const (
	ResultSucceeded Result = "succeeded"
	ResultFailed    Result = "failed"
	ResultSkipped   Result = "skipped"
	ResultExcluded  Result = "excluded"
)

// Reason captures why a run ended the way it did, e.g. why it was skipped.
type Reason string

const (
	ReasonAncestorFailed Reason = "ancestor failed"
	ReasonNotSelected    Reason = "not selected by filter"
	ReasonRunError       Reason = "run error"
)

// Run captures data for one unit's run.
type Run struct {
	ID      uuid.UUID
	Name    string
	Started time.Time
	Ended   time.Time
	Result  Result
	Reason  Reason

	mu sync.Mutex
}

// Report captures data for the whole run.
type Report struct {
	runs []*Run
	mu   sync.Mutex
}

// NewReport creates a new empty report.
func NewReport() *Report {
	return &Report{}
}

// NewRun creates a run record for the named unit, starting now.
func NewRun(name string) *Run {
	return &Run{
		ID:      uuid.New(),
		Name:    name,
		Started: time.Now(),
	}
}

// ErrRunAlreadyExists is returned when a run with the same name was already added.
var ErrRunAlreadyExists = errors.Errorf("run already exists")

// ErrRunNotFound is returned when ending a run that was never added.
var ErrRunNotFound = errors.Errorf("run not found")

// AddRun adds a run to the report.
func (r *Report) AddRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.runs {
		if existing.Name == run.Name {
			return fmt.Errorf("%w: %s", ErrRunAlreadyExists, run.Name)
		}
	}

	r.runs = append(r.runs, run)

	return nil
}

// GetRun returns the run with the given name, or nil.
func (r *Report) GetRun(name string) *Run {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, run := range r.runs {
		if run.Name == name {
			return run
		}
	}

	return nil
}

// EndOption mutates a run as it ends.
type EndOption func(*Run)

// WithResult sets the run's result. Runs end as succeeded unless told otherwise.
func WithResult(result Result) EndOption {
	return func(run *Run) {
		run.Result = result
	}
}

// WithReason records why the run ended the way it did.
func WithReason(reason Reason) EndOption {
	return func(run *Run) {
		run.Reason = reason
	}
}

// EndRun ends the named run. By default the run is assumed to have succeeded; pass WithResult to change that.
func (r *Report) EndRun(name string, endOptions ...EndOption) error {
	run := r.GetRun(name)
	if run == nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, name)
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	run.Ended = time.Now()
	run.Result = ResultSucceeded

	for _, opt := range endOptions {
		opt(run)
	}

	return nil
}

// Runs returns a snapshot of the collected runs.
func (r *Report) Runs() []*Run {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*Run(nil), r.runs...)
}
