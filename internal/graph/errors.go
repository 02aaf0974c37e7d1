package graph

import (
	"fmt"
	"strings"
)

// CyclicDependencyError is returned when dependency edges would form a cycle. It carries the unit paths along the
// cycle, in traversal order.
type CyclicDependencyError []string

func (err CyclicDependencyError) Error() string {
	return "Found a dependency cycle between units: " + strings.Join([]string(err), " -> ")
}

// UnknownDependencyError is returned when an edge targets a path no unit in the stack declares.
type UnknownDependencyError struct {
	From string
	To   string
}

func (err UnknownDependencyError) Error() string {
	return fmt.Sprintf("unit %s depends on %s, which is not a unit of this stack", err.From, err.To)
}
