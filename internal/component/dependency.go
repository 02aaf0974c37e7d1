package component

import (
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// DependencyEdge is a directed relation from a dependent unit to a provider unit.
//
// Enabled defaults to true; a disabled edge contributes no outputs and no ordering. SkipOutputs keeps the edge
// structurally present (ordering is still enforced) but its outputs are never fetched, even when available.
// MockOutputs stand in for real outputs when the provider has not been applied yet and the requested action is in
// the allowed-mock action set.
type DependencyEdge struct {
	// TargetPath is the provider unit's canonical path within the stack (e.g. "acm").
	TargetPath string

	// RawReference is the reference exactly as written in the dependent unit's configuration (e.g. "../acm").
	// Values equal to this string are rewritten to the provider's outputs at resolution time.
	RawReference string

	Enabled     *bool
	SkipOutputs *bool

	MockOutputs               *cty.Value
	MockOutputsAllowedActions *[]string
}

// IsEnabled returns true unless the edge was explicitly disabled.
func (edge *DependencyEdge) IsEnabled() bool {
	if edge.Enabled == nil {
		return true
	}

	return *edge.Enabled
}

// ShouldFetchOutputs returns true if output fetching applies to this edge at all.
func (edge *DependencyEdge) ShouldFetchOutputs() bool {
	if !edge.IsEnabled() {
		return false
	}

	return edge.SkipOutputs == nil || !*edge.SkipOutputs
}

// MockAllowedFor returns true if mock outputs may stand in for real outputs for the given action.
func (edge *DependencyEdge) MockAllowedFor(action Action) bool {
	if edge.MockOutputs == nil {
		return false
	}

	allowed := defaultMockAllowedActions
	if edge.MockOutputsAllowedActions != nil {
		allowed = *edge.MockOutputsAllowedActions
	}

	return slices.Contains(allowed, string(action))
}
