package runner

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/queue"
	"github.com/runstack-io/runstack/pkg/log"
)

// UnitRunner executes one unit's action within a given context.
type UnitRunner func(ctx context.Context, unit *component.Unit) error

// Controller orchestrates concurrent execution over the run queue. Independent entries run in parallel up to the
// configured concurrency; an entry is only picked up once every entry it is blocked by reached a terminal state.
type Controller struct {
	q           *queue.Queue
	runner      UnitRunner
	logger      log.Logger
	readyCh     chan struct{}
	concurrency int
}

// ControllerOption mutates a Controller at construction time.
type ControllerOption func(*Controller)

// WithRunner sets the UnitRunner for the Controller.
func WithRunner(runner UnitRunner) ControllerOption {
	return func(c *Controller) {
		c.runner = runner
	}
}

// WithMaxConcurrency bounds how many entries run at once.
func WithMaxConcurrency(concurrency int) ControllerOption {
	return func(c *Controller) {
		if concurrency <= 0 {
			concurrency = 1
		}

		c.concurrency = concurrency
	}
}

// NewController creates a Controller over a pre-built queue.
func NewController(q *queue.Queue, logger log.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		q:           q,
		logger:      logger,
		readyCh:     make(chan struct{}, 1), // buffered so signaling never blocks
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run drains the queue, returning an error that aggregates every entry that failed or never got to run. On
// context cancellation no new entries are launched, already-started entries finish, and nothing is rolled back.
func (c *Controller) Run(ctx context.Context) error {
	if c.runner == nil {
		return errors.Errorf("controller: runner is not set, cannot run")
	}

	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, c.concurrency)
		results = xsync.NewMapOf[string, error]()
	)

	c.logger.Debugf("Controller: starting with %d entries, concurrency %d", len(c.q.Entries()), c.concurrency)

	canceled := false

	for !canceled && !c.q.Finished() {
		// Cancellation wins over readiness: never launch a new entry once the context is done.
		select {
		case <-ctx.Done():
			canceled = true
			continue
		default:
		}

		readyEntries := c.q.GetReady()

		for _, e := range readyEntries {
			c.logger.Debugf("Controller: running %s", e.Unit.Path)

			sem <- struct{}{}

			wg.Add(1)

			go func(entry *queue.Entry) {
				defer func() {
					<-sem
					wg.Done()

					select {
					case c.readyCh <- struct{}{}:
					default:
					}
				}()

				err := c.runner(ctx, entry.Unit)
				results.Store(entry.Unit.Path, err)

				if err != nil {
					c.logger.Debugf("Controller: %s failed", entry.Unit.Path)
					c.q.Done(entry, false)

					return
				}

				c.logger.Debugf("Controller: %s succeeded", entry.Unit.Path)
				c.q.Done(entry, true)
			}(e)
		}

		if c.q.Finished() {
			break
		}

		select {
		case <-c.readyCh:
		case <-ctx.Done():
			// Stop launching new entries immediately; in-flight ones run to completion to avoid partial
			// infrastructure mutation.
			canceled = true
		}
	}

	wg.Wait()

	errCollector := &errors.MultiError{}

	for _, entry := range c.q.Entries() {
		if err, ok := results.Load(entry.Unit.Path); ok && err != nil {
			errCollector = errCollector.Append(err)
			continue
		}

		if entry.Status == queue.StatusAncestorFailed {
			errCollector = errCollector.Append(errors.Errorf("unit %s did not run because a dependency failed", entry.Unit.Path))
		}
	}

	if canceled {
		errCollector = errCollector.Append(errors.New(ctx.Err()))
	}

	return errCollector.ErrorOrNil()
}
