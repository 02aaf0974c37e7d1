// Package worker provides a concurrent task execution pool with a configurable number of workers.
//
// Tasks are submitted without blocking; a semaphore bounds how many run at once. Errors are collected and
// aggregated so callers get every failure at the end, not just the first.
package worker

import (
	"sync"
	"sync/atomic"

	"github.com/runstack-io/runstack/internal/errors"
)

// Task represents a unit of work that can be executed.
type Task func() error

// Pool manages concurrent task execution with a configurable number of workers.
type Pool struct {
	semaphore   chan struct{}
	allErrors   *errors.MultiError
	wg          sync.WaitGroup
	allErrorsMu sync.Mutex
	isStopping  atomic.Bool
}

// NewWorkerPool creates a new worker pool with the specified maximum number of concurrent workers.
func NewWorkerPool(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &Pool{
		semaphore: make(chan struct{}, maxWorkers),
		allErrors: &errors.MultiError{},
	}
}

// Submit adds a new task and starts a goroutine to execute it when a worker is available. Submissions after Stop
// are dropped.
func (wp *Pool) Submit(task Task) {
	if wp.isStopping.Load() {
		return
	}

	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()

		wp.semaphore <- struct{}{}

		defer func() { <-wp.semaphore }()

		if err := task(); err != nil {
			wp.appendError(err)
		}
	}()
}

// Wait blocks until all submitted tasks have completed and returns the aggregated errors, if any.
func (wp *Pool) Wait() error {
	wp.wg.Wait()

	wp.allErrorsMu.Lock()
	defer wp.allErrorsMu.Unlock()

	return wp.allErrors.ErrorOrNil()
}

// GracefulStop stops accepting new tasks, waits for in-flight ones, and returns the aggregated errors.
func (wp *Pool) GracefulStop() error {
	wp.isStopping.Store(true)

	return wp.Wait()
}

func (wp *Pool) appendError(err error) {
	wp.allErrorsMu.Lock()
	wp.allErrors = wp.allErrors.Append(err)
	wp.allErrorsMu.Unlock()
}
