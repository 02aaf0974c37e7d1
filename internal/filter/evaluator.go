package filter

import (
	"path"
	"strings"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/graph"
)

// AttributeName is the only attribute key units currently expose; a bare identifier is shorthand for it.
const AttributeName = "name"

// ChangeDetector is the external collaborator behind changed-since filters. The real implementation diffs the
// version-control history; tests substitute a fixed list.
type ChangeDetector interface {
	// ChangedPaths returns the paths (relative to the stack directory) that changed since the given reference.
	ChangedPaths(ref string) ([]string, error)
}

// Evaluator applies filter expressions to the units of a dependency graph.
type Evaluator struct {
	graph    *graph.Graph
	detector ChangeDetector
}

// NewEvaluator creates an Evaluator over the given graph. The detector may be nil when no changed-since filters
// are in play.
func NewEvaluator(g *graph.Graph, detector ChangeDetector) *Evaluator {
	return &Evaluator{
		graph:    g,
		detector: detector,
	}
}

// Evaluate evaluates an expression against all units of the graph and returns the matching subset. An empty
// result is valid, not an error.
func (e *Evaluator) Evaluate(expr Expression) (component.Units, error) {
	if expr == nil {
		return nil, errors.New(EvaluationError{Message: "expression is nil"})
	}

	return e.evaluate(expr, e.graph.Units())
}

func (e *Evaluator) evaluate(expr Expression, units component.Units) (component.Units, error) {
	switch node := expr.(type) {
	case *PathFilter:
		return e.evaluatePathFilter(node, units)
	case *AttributeFilter:
		return e.evaluateAttributeFilter(node, units)
	case *PrefixExpression:
		return e.evaluatePrefixExpression(node, units)
	case *InfixExpression:
		return e.evaluateInfixExpression(node, units)
	case *GraphExpression:
		return e.evaluateGraphExpression(node, units)
	case *GitFilter:
		return e.evaluateGitFilter(node, units)
	default:
		return nil, errors.New(EvaluationError{Message: "unknown expression type"})
	}
}

func (e *Evaluator) evaluatePathFilter(filter *PathFilter, units component.Units) (component.Units, error) {
	g, err := filter.CompileGlob()
	if err != nil {
		return nil, errors.New(EvaluationError{Message: "failed to compile glob pattern " + filter.Value + ": " + err.Error()})
	}

	// References written relative to a unit ("../vpc") are normalized the same way dependency inference
	// normalizes them.
	normalized := path.Clean(strings.TrimPrefix(filter.Value, "./"))

	var result component.Units

	for _, unit := range units {
		if unit.Path == normalized || g.Match(unit.Path) {
			result = append(result, unit)
		}
	}

	return result, nil
}

func (e *Evaluator) evaluateAttributeFilter(filter *AttributeFilter, units component.Units) (component.Units, error) {
	if filter.Key != AttributeName {
		return nil, errors.New(EvaluationError{Message: "unknown attribute key: " + filter.Key})
	}

	var result component.Units

	if strings.ContainsAny(filter.Value, "*?[]") {
		g, err := filter.CompileGlob()
		if err != nil {
			return nil, errors.New(EvaluationError{Message: "failed to compile glob pattern for name filter " + filter.Value + ": " + err.Error()})
		}

		for _, unit := range units {
			if g.Match(unit.Name) {
				result = append(result, unit)
			}
		}

		return result, nil
	}

	for _, unit := range units {
		if unit.Name == filter.Value {
			result = append(result, unit)
		}
	}

	return result, nil
}

func (e *Evaluator) evaluatePrefixExpression(expr *PrefixExpression, units component.Units) (component.Units, error) {
	if expr.Operator != "!" {
		return nil, errors.New(EvaluationError{Message: "unknown prefix operator: " + expr.Operator})
	}

	toExclude, err := e.evaluate(expr.Right, units)
	if err != nil {
		return nil, err
	}

	excludeSet := make(map[string]struct{}, len(toExclude))
	for _, unit := range toExclude {
		excludeSet[unit.Path] = struct{}{}
	}

	var result component.Units

	for _, unit := range units {
		if _, ok := excludeSet[unit.Path]; !ok {
			result = append(result, unit)
		}
	}

	return result, nil
}

// evaluateInfixExpression narrows results left to right: each filter in a | chain refines what the previous one
// matched.
func (e *Evaluator) evaluateInfixExpression(expr *InfixExpression, units component.Units) (component.Units, error) {
	if expr.Operator != "|" {
		return nil, errors.New(EvaluationError{Message: "unknown infix operator: " + expr.Operator})
	}

	leftResult, err := e.evaluate(expr.Left, units)
	if err != nil {
		return nil, err
	}

	return e.evaluate(expr.Right, leftResult)
}

func (e *Evaluator) evaluateGraphExpression(expr *GraphExpression, units component.Units) (component.Units, error) {
	matched, err := e.evaluate(expr.Target, units)
	if err != nil {
		return nil, err
	}

	include := make(map[string]struct{}, len(matched))
	for _, unit := range matched {
		include[unit.Path] = struct{}{}
	}

	if expr.IncludeDependencies {
		for _, p := range e.graph.TransitiveDependencies(matched.Paths()) {
			include[p] = struct{}{}
		}
	}

	if expr.IncludeDependents {
		for _, p := range e.graph.TransitiveDependents(matched.Paths()) {
			include[p] = struct{}{}
		}
	}

	var result component.Units

	for _, unit := range units {
		if _, ok := include[unit.Path]; ok {
			result = append(result, unit)
		}
	}

	return result, nil
}

func (e *Evaluator) evaluateGitFilter(expr *GitFilter, units component.Units) (component.Units, error) {
	if e.detector == nil {
		return nil, errors.New(EvaluationError{Message: "changed-since filters need a change detector, none is configured"})
	}

	changed, err := e.detector.ChangedPaths(expr.Ref)
	if err != nil {
		return nil, err
	}

	var result component.Units

	for _, unit := range units {
		for _, changedPath := range changed {
			changedPath = path.Clean(filepathToSlash(changedPath))
			if changedPath == unit.Path || strings.HasPrefix(changedPath, unit.Path+"/") {
				result = append(result, unit)
				break
			}
		}
	}

	return result, nil
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
