// Package graph provides the dependency DAG built over a stack's units.
//
// The graph is built once per run and treated as immutable during execution. Every edge insertion is
// cycle-checked, so a Graph can never hold a cycle; callers never need to re-validate before scheduling.
package graph

import (
	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/util"
)

// Graph is the dependency DAG over a stack's units. Edges point from a dependent unit to its provider.
type Graph struct {
	byPath map[string]*component.Unit
	edges  map[string][]string
	units  component.Units
}

// Build constructs a Graph from the given units, wiring an ordering edge for every enabled dependency edge.
// Returns CyclicDependencyError if the declared dependencies form a cycle, and UnknownDependencyError if an edge
// targets a path no unit in the stack has.
func Build(units component.Units) (*Graph, error) {
	g := &Graph{
		byPath: make(map[string]*component.Unit, len(units)),
		edges:  make(map[string][]string),
		units:  units,
	}

	for _, unit := range units {
		g.byPath[unit.Path] = unit
	}

	for _, unit := range units {
		for _, depPath := range unit.OrderingDependencyPaths() {
			if err := g.Connect(unit.Path, depPath); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// Units returns the units of the graph in their declaration order.
func (g *Graph) Units() component.Units {
	return g.units
}

// UnitByPath returns the unit with the given path, or nil.
func (g *Graph) UnitByPath(path string) *component.Unit {
	return g.byPath[path]
}

// Connect adds an ordering edge from the dependent unit to the provider unit. The insertion is cycle-checked: if
// the provider already reaches the dependent through existing edges, the edge would close a cycle and the insert
// fails with CyclicDependencyError.
func (g *Graph) Connect(fromPath, toPath string) error {
	if _, ok := g.byPath[fromPath]; !ok {
		return errors.New(UnknownDependencyError{From: fromPath, To: toPath})
	}

	if _, ok := g.byPath[toPath]; !ok {
		return errors.New(UnknownDependencyError{From: fromPath, To: toPath})
	}

	if fromPath == toPath {
		return errors.New(CyclicDependencyError{fromPath, toPath})
	}

	if cycle := g.pathBetween(toPath, fromPath); cycle != nil {
		return errors.New(CyclicDependencyError(append([]string{fromPath}, cycle...)))
	}

	g.edges[fromPath] = append(g.edges[fromPath], toPath)

	return nil
}

// pathBetween returns the dependency path from one unit to another if one exists, using a depth-first traversal
// with an explicit recursion stack, or nil if the target is unreachable.
func (g *Graph) pathBetween(from, to string) []string {
	if from == to {
		return []string{from}
	}

	for _, next := range g.edges[from] {
		if tail := g.pathBetween(next, to); tail != nil {
			return append([]string{from}, tail...)
		}
	}

	return nil
}

// Dependencies returns the direct providers of the unit at the given path.
func (g *Graph) Dependencies(path string) []string {
	return util.RemoveDuplicatesFromList(g.edges[path])
}

// Dependents returns the direct dependents of the unit at the given path.
func (g *Graph) Dependents(path string) []string {
	var out []string

	for _, unit := range g.units {
		if util.ListContainsElement(g.edges[unit.Path], path) {
			out = append(out, unit.Path)
		}
	}

	return out
}

// TransitiveDependencies returns all paths reachable from the given paths via dependency edges, excluding the
// starting paths themselves. The result preserves unit declaration order.
func (g *Graph) TransitiveDependencies(paths []string) []string {
	return g.closure(paths, g.Dependencies)
}

// TransitiveDependents returns all paths that transitively depend on the given paths, excluding the starting
// paths themselves. The result preserves unit declaration order.
func (g *Graph) TransitiveDependents(paths []string) []string {
	return g.closure(paths, g.Dependents)
}

func (g *Graph) closure(paths []string, next func(string) []string) []string {
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		seen[path] = struct{}{}
	}

	frontier := append([]string(nil), paths...)
	reached := make(map[string]struct{})

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		for _, path := range next(current) {
			if _, ok := seen[path]; ok {
				continue
			}

			seen[path] = struct{}{}
			reached[path] = struct{}{}

			frontier = append(frontier, path)
		}
	}

	var out []string

	for _, unit := range g.units {
		if _, ok := reached[unit.Path]; ok {
			out = append(out, unit.Path)
		}
	}

	return out
}

// TopologicalSort returns the units ordered so every unit appears after all of its providers. Units with no
// ordering relation keep their declaration order.
func (g *Graph) TopologicalSort() component.Units {
	remainingDeps := make(map[string]int, len(g.units))
	for _, unit := range g.units {
		remainingDeps[unit.Path] = len(g.Dependencies(unit.Path))
	}

	sorted := make(component.Units, 0, len(g.units))
	done := make(map[string]struct{}, len(g.units))

	// The graph is acyclic by construction, so this always terminates with every unit placed.
	for len(sorted) < len(g.units) {
		for _, unit := range g.units {
			if _, ok := done[unit.Path]; ok {
				continue
			}

			if remainingDeps[unit.Path] > 0 {
				continue
			}

			sorted = append(sorted, unit)
			done[unit.Path] = struct{}{}

			for _, dependent := range g.Dependents(unit.Path) {
				remainingDeps[dependent]--
			}
		}
	}

	return sorted
}
