package component

// PlanStep is a single entry of an execution plan: one unit tagged with the action to perform.
type PlanStep struct {
	Unit   *Unit
	Action Action
}

// ExecutionPlan is a topologically ordered sequence of units selected by a filter, each tagged with the action to
// perform. For destroy runs the order is the reverse of the apply order.
type ExecutionPlan struct {
	Steps  []*PlanStep
	Action Action
}

// Units returns the units of the plan, in plan order.
func (plan *ExecutionPlan) Units() Units {
	units := make(Units, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		units = append(units, step.Unit)
	}

	return units
}

// IsEmpty returns true for a no-op plan. An empty plan is valid, not an error: it is the result of a filter that
// matched nothing.
func (plan *ExecutionPlan) IsEmpty() bool {
	return len(plan.Steps) == 0
}
