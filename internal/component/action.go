// Package component defines the core entities of a run: stacks, units, dependency edges, and execution plans.
package component

// Action is a per-unit operation carried out by a run.
type Action string

const (
	ActionValidate Action = "validate"
	ActionPlan     Action = "plan"
	ActionApply    Action = "apply"
	ActionDestroy  Action = "destroy"
	ActionOutput   Action = "output"
)

// defaultMockAllowedActions are the actions for which mock outputs may stand in for real outputs when a dependency
// has not been applied yet. Mutating actions never run on mocks.
var defaultMockAllowedActions = []string{
	string(ActionValidate),
	string(ActionPlan),
}

// IsDestroy returns true for the destroy action, which reverses dependency ordering.
func (action Action) IsDestroy() bool {
	return action == ActionDestroy
}
