package runner_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/queue"
	"github.com/runstack-io/runstack/internal/runner"
)

// runRecorder records unit completion order and simulates failures.
type runRecorder struct {
	mu    sync.Mutex
	order []string
	fail  map[string]bool
}

func (r *runRecorder) run(_ context.Context, unit *component.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = append(r.order, unit.Path)

	if r.fail[unit.Path] {
		return errors.Errorf("unit %s exploded", unit.Path)
	}

	return nil
}

func (r *runRecorder) position(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.order {
		if p == path {
			return i
		}
	}

	return -1
}

func planFor(action component.Action, units ...*component.Unit) *component.ExecutionPlan {
	plan := &component.ExecutionPlan{Action: action}
	for _, unit := range units {
		plan.Steps = append(plan.Steps, &component.PlanStep{Unit: unit, Action: action})
	}

	return plan
}

func TestControllerRunsEverythingInOrder(t *testing.T) {
	t.Parallel()

	vpc := unitWithDeps("vpc")
	db := unitWithDeps("db", "vpc")
	api := unitWithDeps("api", "db")

	recorder := &runRecorder{}
	q := queue.NewQueue(planFor(component.ActionApply, vpc, db, api), false)

	c := runner.NewController(q, newTestLogger(),
		runner.WithRunner(recorder.run),
		runner.WithMaxConcurrency(4),
	)

	require.NoError(t, c.Run(context.Background()))

	assert.Len(t, recorder.order, 3)
	assert.Less(t, recorder.position("vpc"), recorder.position("db"))
	assert.Less(t, recorder.position("db"), recorder.position("api"))
}

func TestControllerSkipsDependentsOfFailedUnits(t *testing.T) {
	t.Parallel()

	vpc := unitWithDeps("vpc")
	db := unitWithDeps("db", "vpc")
	monitoring := unitWithDeps("monitoring")

	recorder := &runRecorder{fail: map[string]bool{"vpc": true}}
	q := queue.NewQueue(planFor(component.ActionApply, vpc, db, monitoring), false)

	c := runner.NewController(q, newTestLogger(),
		runner.WithRunner(recorder.run),
		runner.WithMaxConcurrency(4),
	)

	err := c.Run(context.Background())
	require.Error(t, err)

	// The independent unit still ran; the dependent one never did.
	assert.NotEqual(t, -1, recorder.position("monitoring"))
	assert.Equal(t, -1, recorder.position("db"))

	assert.Contains(t, err.Error(), "vpc exploded")
	assert.Contains(t, err.Error(), "unit db did not run because a dependency failed")
}

func TestControllerIgnoreErrorsRunsEverything(t *testing.T) {
	t.Parallel()

	vpc := unitWithDeps("vpc")
	db := unitWithDeps("db", "vpc")

	recorder := &runRecorder{fail: map[string]bool{"vpc": true}}
	q := queue.NewQueue(planFor(component.ActionApply, vpc, db), true)

	c := runner.NewController(q, newTestLogger(),
		runner.WithRunner(recorder.run),
		runner.WithMaxConcurrency(4),
	)

	err := c.Run(context.Background())
	require.Error(t, err)

	assert.NotEqual(t, -1, recorder.position("db"))
	assert.Contains(t, err.Error(), "vpc exploded")
}

func TestControllerHonorsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	units := component.Units{
		unitWithDeps("a"), unitWithDeps("b"), unitWithDeps("c"), unitWithDeps("d"),
	}

	var (
		mu      sync.Mutex
		current int
		peak    int
	)

	track := func(_ context.Context, _ *component.Unit) error {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()

		defer func() {
			mu.Lock()
			current--
			mu.Unlock()
		}()

		return nil
	}

	q := queue.NewQueue(planFor(component.ActionApply, units...), false)

	c := runner.NewController(q, newTestLogger(),
		runner.WithRunner(track),
		runner.WithMaxConcurrency(2),
	)

	require.NoError(t, c.Run(context.Background()))
	assert.LessOrEqual(t, peak, 2)
}

func TestControllerStopsLaunchingOnCancellation(t *testing.T) {
	t.Parallel()

	vpc := unitWithDeps("vpc")
	db := unitWithDeps("db", "vpc")

	ctx, cancel := context.WithCancel(context.Background())

	recorder := &runRecorder{}
	cancelingRun := func(runCtx context.Context, unit *component.Unit) error {
		cancel()
		return recorder.run(runCtx, unit)
	}

	q := queue.NewQueue(planFor(component.ActionApply, vpc, db), false)

	c := runner.NewController(q, newTestLogger(),
		runner.WithRunner(cancelingRun),
		runner.WithMaxConcurrency(1),
	)

	err := c.Run(ctx)
	require.Error(t, err)

	// The in-flight unit finished; the dependent was never launched.
	assert.NotEqual(t, -1, recorder.position("vpc"))
	assert.Equal(t, -1, recorder.position("db"))
	assert.True(t, errors.Is(err, context.Canceled))
}
