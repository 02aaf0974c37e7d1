// Package queue provides the run queue that keeps DAG state during execution.
//
// The queue is populated from an execution plan in dependency order: for applies, entries are taken from
// providers to dependents; for destroys the order is reversed, so a unit is destroyed before its dependencies.
// The queue only tracks status transitions; it starts no goroutines of its own.
package queue

import (
	"sync"

	"github.com/runstack-io/runstack/internal/component"
)

// Status is the lifecycle state of a queue entry.
type Status int

const (
	// StatusPending means the entry has not been classified yet.
	StatusPending Status = iota
	// StatusBlocked means the entry waits for at least one dependency to finish.
	StatusBlocked
	// StatusReady means every dependency reached a terminal success state.
	StatusReady
	// StatusRunning means the entry's action is executing.
	StatusRunning
	// StatusSucceeded means the entry's action completed successfully.
	StatusSucceeded
	// StatusFailed means the entry's action returned an error.
	StatusFailed
	// StatusAncestorFailed means the entry never ran because something it depends on failed.
	StatusAncestorFailed
	// StatusExcluded means the entry was deselected by the filter and is tracked for ordering only.
	StatusExcluded
)

var statusNames = map[Status]string{
	StatusPending:        "pending",
	StatusBlocked:        "blocked",
	StatusReady:          "ready",
	StatusRunning:        "running",
	StatusSucceeded:      "succeeded",
	StatusFailed:         "failed",
	StatusAncestorFailed: "ancestor failed",
	StatusExcluded:       "excluded",
}

func (s Status) String() string {
	return statusNames[s]
}

// Entry is one unit of the queue together with its DAG state.
type Entry struct {
	Unit      *component.Unit
	Status    Status
	blockedBy []*Entry
}

// Queue keeps the DAG state of a run.
type Queue struct {
	entries []*Entry
	byPath  map[string]*Entry

	// IgnoreErrors makes a failure unblock dependents instead of cascading StatusAncestorFailed.
	IgnoreErrors bool

	mu sync.Mutex
}

// NewQueue builds a queue from a topologically ordered plan. For destroy plans the caller passes the already
// reversed order; the queue itself wires blocking relations from each unit's enabled dependency edges, flipped
// for destroys so dependents block their providers.
func NewQueue(plan *component.ExecutionPlan, ignoreErrors bool) *Queue {
	q := &Queue{
		byPath:       make(map[string]*Entry, len(plan.Steps)),
		IgnoreErrors: ignoreErrors,
	}

	for _, step := range plan.Steps {
		entry := &Entry{Unit: step.Unit, Status: StatusPending}
		q.entries = append(q.entries, entry)
		q.byPath[step.Unit.Path] = entry
	}

	for _, entry := range q.entries {
		for _, depPath := range entry.Unit.OrderingDependencyPaths() {
			provider, ok := q.byPath[depPath]
			if !ok {
				continue
			}

			if plan.Action.IsDestroy() {
				// Destroy order is reversed: the provider waits for its dependents.
				provider.blockedBy = append(provider.blockedBy, entry)
			} else {
				entry.blockedBy = append(entry.blockedBy, provider)
			}
		}
	}

	for _, entry := range q.entries {
		if entry.Unit.FlagExcluded {
			entry.Status = StatusExcluded
			continue
		}

		if len(entry.blockedBy) > 0 {
			entry.Status = StatusBlocked
		} else {
			entry.Status = StatusReady
		}
	}

	// Excluded entries are terminal from the start; unblock whatever only waited on them.
	q.propagate()

	return q
}

// Entries returns the queue entries in plan order.
func (q *Queue) Entries() []*Entry {
	return q.entries
}

// GetReady returns all entries ready to run, marking them running so a concurrent caller never picks the same
// entry twice.
func (q *Queue) GetReady() []*Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*Entry

	for _, entry := range q.entries {
		if entry.Status == StatusReady {
			entry.Status = StatusRunning
			out = append(out, entry)
		}
	}

	return out
}

// Done records the terminal status of a running entry and re-classifies blocked entries: entries whose
// dependencies all succeeded (or are excluded) become ready; entries downstream of a failure become
// ancestor-failed unless the queue runs in ignore-errors mode.
func (q *Queue) Done(entry *Entry, succeeded bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if succeeded {
		entry.Status = StatusSucceeded
	} else {
		entry.Status = StatusFailed
	}

	q.propagate()
}

// Finished returns true when no entry can make further progress.
func (q *Queue) Finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, entry := range q.entries {
		switch entry.Status {
		case StatusPending, StatusBlocked, StatusReady, StatusRunning:
			return false
		}
	}

	return true
}

// terminal statuses a dependency may settle in without blocking dependents forever.
func isTerminal(s Status) bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusAncestorFailed, StatusExcluded:
		return true
	}

	return false
}

// satisfies returns true if a dependency in the given status allows its dependents to run.
func (q *Queue) satisfies(s Status) bool {
	if s == StatusSucceeded || s == StatusExcluded {
		return true
	}

	// In ignore-errors mode every unit runs regardless of upstream failures.
	return q.IgnoreErrors && (s == StatusFailed || s == StatusAncestorFailed)
}

// propagate re-classifies blocked entries after a terminal transition. Callers must hold q.mu.
func (q *Queue) propagate() {
	// A single terminal transition can cascade through several levels of ancestor failures, so loop until the
	// classification settles.
	for changed := true; changed; {
		changed = false

		for _, entry := range q.entries {
			if entry.Status != StatusBlocked {
				continue
			}

			ready := true
			failed := false

			for _, dep := range entry.blockedBy {
				if !isTerminal(dep.Status) {
					ready = false
					continue
				}

				if !q.satisfies(dep.Status) {
					failed = true
				}
			}

			if failed {
				entry.Status = StatusAncestorFailed
				changed = true

				continue
			}

			if ready {
				entry.Status = StatusReady
				changed = true
			}
		}
	}
}
