// Package runner ties the engine together: it filters the unit DAG, builds an execution plan, resolves
// dependency outputs, and schedules unit actions with bounded parallelism.
package runner

import (
	"context"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/filter"
	"github.com/runstack-io/runstack/internal/graph"
	"github.com/runstack-io/runstack/internal/queue"
	"github.com/runstack-io/runstack/internal/report"
	"github.com/runstack-io/runstack/internal/resolver"
	"github.com/runstack-io/runstack/options"
)

// Locker guards a unit's persisted state against concurrent mutation. The returned function releases the lock.
type Locker interface {
	LockUnit(ctx context.Context, unit *component.Unit) (func() error, error)
}

// Runner executes actions over a stack's units in dependency order.
type Runner struct {
	opts     *options.RunOptions
	stack    *component.Stack
	graph    *graph.Graph
	resolver *resolver.Resolver
	executor Executor
	detector filter.ChangeDetector
	locker   Locker
	report   *report.Report
}

// Option mutates a Runner at construction time.
type Option func(*Runner)

// WithExecutor overrides the exec-based default executor.
func WithExecutor(executor Executor) Option {
	return func(r *Runner) {
		r.executor = executor
	}
}

// WithChangeDetector wires the collaborator behind changed-since filters.
func WithChangeDetector(detector filter.ChangeDetector) Option {
	return func(r *Runner) {
		r.detector = detector
	}
}

// WithLocker wires the state lock collaborator. Without one, units run unlocked.
func WithLocker(locker Locker) Option {
	return func(r *Runner) {
		r.locker = locker
	}
}

// New builds a Runner over the given stack. Graph construction happens here, so structural errors (cycles,
// unknown dependency targets) surface before anything executes.
func New(opts *options.RunOptions, stack *component.Stack, outputs resolver.OutputReader, runnerOpts ...Option) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	g, err := graph.Build(stack.Units)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		opts:     opts,
		stack:    stack,
		graph:    g,
		resolver: resolver.New(opts.Logger, outputs, opts.Parallelism),
		executor: NewShellExecutor(opts, opts.Logger),
		report:   report.NewReport(),
	}

	for _, opt := range runnerOpts {
		opt(r)
	}

	return r, nil
}

// Graph exposes the built DAG, e.g. for the output command.
func (r *Runner) Graph() *graph.Graph {
	return r.graph
}

// Report exposes the per-unit run records collected by the last Run.
func (r *Runner) Report() *report.Report {
	return r.report
}

// Plan evaluates the configured filters and builds the execution plan for the given action. Filter syntax errors
// are structural and abort before any side effect.
func (r *Runner) Plan(action component.Action) (*component.ExecutionPlan, error) {
	filters, err := filter.ParseQueries(r.opts.FilterQueries)
	if err != nil {
		return nil, err
	}

	selected, err := filters.Evaluate(r.graph, r.detector)
	if err != nil {
		return nil, err
	}

	return BuildPlan(r.graph, selected, action, r.opts.Logger), nil
}

// Run plans and executes the given action over the stack. The run's final error is non-nil if any unit
// failed, and the report enumerates every unit's individual outcome.
func (r *Runner) Run(ctx context.Context, action component.Action) error {
	plan, err := r.Plan(action)
	if err != nil {
		return err
	}

	for _, unit := range NotSelected(r.graph, plan) {
		run := report.NewRun(unit.Path)
		if err := r.report.AddRun(run); err != nil {
			return err
		}

		if err := r.report.EndRun(unit.Path, report.WithResult(report.ResultExcluded), report.WithReason(report.ReasonNotSelected)); err != nil {
			return err
		}
	}

	if plan.IsEmpty() {
		r.opts.Logger.Infof("No units matched the configured filters; nothing to do")

		return nil
	}

	q := queue.NewQueue(plan, r.opts.IgnoreErrors)

	controller := NewController(q, r.opts.Logger,
		WithRunner(r.unitRunner(action)),
		WithMaxConcurrency(r.opts.Parallelism),
	)

	runErr := controller.Run(ctx)

	// Entries downstream of a failure never ran; record them so the summary can tell skips from failures.
	for _, entry := range q.Entries() {
		if entry.Status != queue.StatusAncestorFailed {
			continue
		}

		if r.report.GetRun(entry.Unit.Path) != nil {
			continue
		}

		run := report.NewRun(entry.Unit.Path)
		if addErr := r.report.AddRun(run); addErr != nil {
			continue
		}

		_ = r.report.EndRun(entry.Unit.Path, report.WithResult(report.ResultSkipped), report.WithReason(report.ReasonAncestorFailed))
	}

	if err := r.report.Write(r.opts.Writer); err != nil {
		r.opts.Logger.Errorf("Failed to write run summary: %v", err)
	}

	return runErr
}

// unitRunner returns the per-unit execution function handed to the controller: resolve dependency outputs, take
// the unit's state lock, execute the action, and record the outcome.
func (r *Runner) unitRunner(action component.Action) UnitRunner {
	return func(ctx context.Context, unit *component.Unit) error {
		run := report.NewRun(unit.Path)
		if err := r.report.AddRun(run); err != nil {
			return err
		}

		err := r.executeUnit(ctx, unit, action)
		if err != nil {
			_ = r.report.EndRun(unit.Path, report.WithResult(report.ResultFailed), report.WithReason(report.ReasonRunError))

			return errors.Errorf("unit %s %s failed: %w", unit.Path, action, err)
		}

		return r.report.EndRun(unit.Path)
	}
}

func (r *Runner) executeUnit(ctx context.Context, unit *component.Unit, action component.Action) error {
	if err := r.resolver.ResolveUnit(ctx, r.stack.Units, unit, action); err != nil {
		return err
	}

	if r.locker != nil {
		unlock, err := r.locker.LockUnit(ctx, unit)
		if err != nil {
			return err
		}

		defer func() {
			if unlockErr := unlock(); unlockErr != nil {
				r.opts.Logger.Warnf("Failed to release lock for unit %s: %v", unit.Path, unlockErr)
			}
		}()
	}

	return r.executor.Execute(ctx, unit, action)
}
