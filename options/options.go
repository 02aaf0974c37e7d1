// Package options provides the set of options that configure the behavior of a runstack run.
package options

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/pkg/log"
)

const (
	// DefaultStackConfigName is the file name of a stack definition.
	DefaultStackConfigName = "runstack.hcl"

	// DefaultStackDir is the directory a stack is generated into.
	DefaultStackDir = ".runstack-stack"

	// DefaultValuesFileName is the file each generated unit receives with its resolved values.
	DefaultValuesFileName = "runstack.values.hcl"

	// DefaultMaxFoldersToCheck caps the upward directory walk when discovering hierarchy files, to avoid
	// accidental infinite loops from cyclical symlinks.
	DefaultMaxFoldersToCheck = 100

	// DefaultExecutablePath is the IaC executable invoked per unit unless overridden.
	DefaultExecutablePath = "tofu"
)

// RunOptions represents options that configure the behavior of a single runstack run.
type RunOptions struct {
	// WorkingDir is the directory runstack operates in. Stack discovery and hierarchy walks start here.
	WorkingDir string

	// StackConfigPath is the location of the stack definition file.
	StackConfigPath string

	// OutputDir is the directory generated unit working directories are placed in. Defaults to
	// <WorkingDir>/.runstack-stack.
	OutputDir string

	// ExecutablePath is the underlying IaC binary units are executed with.
	ExecutablePath string

	// FilterQueries are the unit selection expressions for this run. Multiple queries have union semantics.
	FilterQueries []string

	// Parallelism bounds how many independent units may run concurrently. Must be positive.
	Parallelism int

	// IgnoreErrors makes the scheduler run every unit regardless of upstream failures and report a consolidated
	// failure list at the end, instead of halting transitive dependents.
	IgnoreErrors bool

	// MaxFoldersToCheck caps the upward hierarchy walk.
	MaxFoldersToCheck int

	// NoColor disables colored output.
	NoColor bool

	// Logger is the logger to use for this run.
	Logger log.Logger

	// Writer and ErrWriter are where unit output is sent.
	Writer    io.Writer
	ErrWriter io.Writer
}

// NewRunOptions returns a RunOptions with defaults filled in for the current working directory.
func NewRunOptions() *RunOptions {
	workingDir, err := os.Getwd()
	if err != nil {
		workingDir = "."
	}

	workingDir = filepath.ToSlash(workingDir)

	return &RunOptions{
		WorkingDir:        workingDir,
		StackConfigPath:   filepath.ToSlash(filepath.Join(workingDir, DefaultStackConfigName)),
		OutputDir:         filepath.ToSlash(filepath.Join(workingDir, DefaultStackDir)),
		ExecutablePath:    DefaultExecutablePath,
		Parallelism:       runtime.NumCPU(),
		MaxFoldersToCheck: DefaultMaxFoldersToCheck,
		Logger:            log.New(),
		Writer:            os.Stdout,
		ErrWriter:         os.Stderr,
	}
}

// Clone returns a copy of this RunOptions. Slices are copied so the clone can be mutated independently; the logger
// and writers are shared.
func (opts *RunOptions) Clone() *RunOptions {
	clone := *opts
	clone.FilterQueries = append([]string(nil), opts.FilterQueries...)

	return &clone
}

// Validate checks invariants that every run relies on.
func (opts *RunOptions) Validate() error {
	if opts.Parallelism <= 0 {
		return errors.Errorf("parallelism must be a positive number, got %d", opts.Parallelism)
	}

	if opts.WorkingDir == "" {
		return errors.Errorf("working directory must be set")
	}

	return nil
}
