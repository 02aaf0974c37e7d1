// Package filter provides a parser and evaluator for the query strings used to select units of a stack.
//
// The package implements a three-stage design: a lexer tokenizes the query, a recursive-descent parser builds an
// AST, and an evaluator applies the AST to the units of a dependency graph.
//
// Supported syntax:
//
//	./apps/api          exact path match
//	./apps/*            glob path match
//	api                 name shorthand (same as name=api)
//	name=api            attribute match, value may be a glob
//	!db                 negation: everything but db
//	api...              the matched units plus all their transitive dependencies
//	...db               the matched units plus all their transitive dependents
//	./apps/* | !legacy  intersection, applied left to right
//	[main]              units changed since the given version-control ref
//
// Multiple filter queries combine with union semantics (see Filters).
package filter

import (
	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/graph"
)

// Filter is one parsed filter query.
type Filter struct {
	expr Expression
	raw  string
}

// Parse parses a single filter query string. Malformed queries fail with InvalidFilterSyntaxError.
func Parse(query string) (*Filter, error) {
	expr, err := NewParser(query).ParseExpression()
	if err != nil {
		return nil, err
	}

	return &Filter{expr: expr, raw: query}, nil
}

// String returns the original query.
func (f *Filter) String() string {
	return f.raw
}

// Evaluate applies the filter to the units of the given graph.
func (f *Filter) Evaluate(g *graph.Graph, detector ChangeDetector) (component.Units, error) {
	return NewEvaluator(g, detector).Evaluate(f.expr)
}

// Filters is a set of filter queries combined with union (OR) semantics, unlike | within a single query, which
// intersects.
type Filters []*Filter

// ParseQueries parses each query; any syntax error fails the whole set, before scheduling.
func ParseQueries(queries []string) (Filters, error) {
	filters := make(Filters, 0, len(queries))

	for _, query := range queries {
		f, err := Parse(query)
		if err != nil {
			return nil, err
		}

		filters = append(filters, f)
	}

	return filters, nil
}

// Evaluate returns the union of every filter's matches, in unit declaration order. With no filters configured,
// every unit matches.
func (filters Filters) Evaluate(g *graph.Graph, detector ChangeDetector) (component.Units, error) {
	if len(filters) == 0 {
		return g.Units(), nil
	}

	matched := make(map[string]struct{})

	for _, f := range filters {
		units, err := f.Evaluate(g, detector)
		if err != nil {
			return nil, err
		}

		for _, unit := range units {
			matched[unit.Path] = struct{}{}
		}
	}

	var result component.Units

	for _, unit := range g.Units() {
		if _, ok := matched[unit.Path]; ok {
			result = append(result, unit)
		}
	}

	return result, nil
}
