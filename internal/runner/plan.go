package runner

import (
	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/graph"
	"github.com/runstack-io/runstack/pkg/log"
	"github.com/runstack-io/runstack/util"
)

// BuildPlan turns a filtered selection into an execution plan that satisfies the DAG's ordering invariants.
//
// A unit the filter excluded but that a selected unit depends on is re-included implicitly with a warning (for
// destroys the same applies to dependents, which must be destroyed first). The plan is topologically ordered,
// reversed for destroys.
func BuildPlan(g *graph.Graph, selected component.Units, action component.Action, logger log.Logger) *component.ExecutionPlan {
	selectedPaths := selected.Paths()

	var closure []string
	if action.IsDestroy() {
		closure = g.TransitiveDependents(selectedPaths)
	} else {
		closure = g.TransitiveDependencies(selectedPaths)
	}

	include := make(map[string]struct{}, len(selectedPaths)+len(closure))
	for _, path := range selectedPaths {
		include[path] = struct{}{}
	}

	for _, path := range closure {
		if _, ok := include[path]; ok {
			continue
		}

		include[path] = struct{}{}

		if action.IsDestroy() {
			logger.Warnf("Unit %s was not selected by the filter but depends on a selected unit; re-including it so it is destroyed first", path)
		} else {
			logger.Warnf("Unit %s was not selected by the filter but a selected unit depends on it; re-including it", path)
		}
	}

	ordered := g.TopologicalSort()
	if action.IsDestroy() {
		reversed := make(component.Units, 0, len(ordered))
		for i := len(ordered) - 1; i >= 0; i-- {
			reversed = append(reversed, ordered[i])
		}

		ordered = reversed
	}

	plan := &component.ExecutionPlan{Action: action}

	for _, unit := range ordered {
		if _, ok := include[unit.Path]; !ok {
			unit.FlagExcluded = true
			continue
		}

		plan.Steps = append(plan.Steps, &component.PlanStep{Unit: unit, Action: action})
	}

	return plan
}

// NotSelected returns the units of the graph left out of the given plan, for reporting.
func NotSelected(g *graph.Graph, plan *component.ExecutionPlan) component.Units {
	planned := plan.Units().Paths()

	var out component.Units

	for _, unit := range g.Units() {
		if !util.ListContainsElement(planned, unit.Path) {
			out = append(out, unit)
		}
	}

	return out
}
