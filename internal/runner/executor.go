package runner

import (
	"context"
	"os/exec"
	"path/filepath"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/options"
	"github.com/runstack-io/runstack/pkg/log"
)

// Executor carries out one action on one unit. The real implementation shells out to the configured IaC binary;
// tests substitute their own.
type Executor interface {
	Execute(ctx context.Context, unit *component.Unit, action component.Action) error
}

// ShellExecutor invokes the configured executable (tofu by default) in the unit's generated working directory.
type ShellExecutor struct {
	opts   *options.RunOptions
	logger log.Logger
}

// NewShellExecutor returns the exec-based Executor used for real runs.
func NewShellExecutor(opts *options.RunOptions, logger log.Logger) *ShellExecutor {
	return &ShellExecutor{
		opts:   opts,
		logger: logger,
	}
}

// Execute runs `<executable> <action>` in the unit's working directory, streaming output to the run's writers.
func (e *ShellExecutor) Execute(ctx context.Context, unit *component.Unit, action component.Action) error {
	workingDir := filepath.Join(e.opts.OutputDir, filepath.FromSlash(unit.Path))

	args := []string{string(action)}
	if action == component.ActionApply || action == component.ActionDestroy {
		args = append(args, "-auto-approve")
	}

	e.logger.Debugf("Running %s %v in %s", e.opts.ExecutablePath, args, workingDir)

	cmd := exec.CommandContext(ctx, e.opts.ExecutablePath, args...)
	cmd.Dir = workingDir
	cmd.Stdout = e.opts.Writer
	cmd.Stderr = e.opts.ErrWriter

	if err := cmd.Run(); err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}
