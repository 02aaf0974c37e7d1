package component

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Unit represents a single deployment target: one directory with templates from a source reference, configured
// exclusively through its values mapping. A unit exists only inside a stack.
type Unit struct {
	// Name is unique within the enclosing stack.
	Name string

	// Source is the raw source reference (location, optional //subpath, optional ?ref= selector).
	Source string

	// Path is the unit's output path, relative to the generated stack directory.
	Path string

	// Values is the evaluated values mapping, the only channel through which configuration reaches the unit.
	// Before resolution it may still contain symbolic references to sibling units.
	Values cty.Value

	// ResolvedValues is Values after dependency outputs have been substituted for symbolic references. Set by the
	// resolver before scheduling.
	ResolvedValues cty.Value

	// Dependencies are the edges from this unit to the units that must complete before it.
	Dependencies []*DependencyEdge

	// FlagExcluded marks a unit deselected by the filter. Excluded units keep their place in the graph so
	// ordering invariants still hold, but no action is executed for them.
	FlagExcluded bool
}

// Units is a list of units.
type Units []*Unit

// String renders this unit as a human-readable string.
func (unit *Unit) String() string {
	deps := make([]string, 0, len(unit.Dependencies))
	for _, edge := range unit.Dependencies {
		deps = append(deps, edge.TargetPath)
	}

	return fmt.Sprintf("Unit %s (path: %s, excluded: %v, dependencies: [%s])",
		unit.Name, unit.Path, unit.FlagExcluded, strings.Join(deps, ", "))
}

// DependencyPaths returns the target paths of all dependency edges, enabled or not.
func (unit *Unit) DependencyPaths() []string {
	paths := make([]string, 0, len(unit.Dependencies))
	for _, edge := range unit.Dependencies {
		paths = append(paths, edge.TargetPath)
	}

	return paths
}

// OrderingDependencyPaths returns the target paths that constrain scheduling: enabled edges, including ones with
// skip_outputs set, since those are still structurally present.
func (unit *Unit) OrderingDependencyPaths() []string {
	paths := make([]string, 0, len(unit.Dependencies))

	for _, edge := range unit.Dependencies {
		if edge.IsEnabled() {
			paths = append(paths, edge.TargetPath)
		}
	}

	return paths
}

// Paths returns the relative paths of all units, in order.
func (units Units) Paths() []string {
	paths := make([]string, 0, len(units))
	for _, unit := range units {
		paths = append(paths, unit.Path)
	}

	return paths
}

// FindByPath returns the unit with the given relative path, or nil.
func (units Units) FindByPath(path string) *Unit {
	for _, unit := range units {
		if unit.Path == path {
			return unit
		}
	}

	return nil
}

// FindByName returns the unit with the given name, or nil.
func (units Units) FindByName(name string) *Unit {
	for _, unit := range units {
		if unit.Name == name {
			return unit
		}
	}

	return nil
}
