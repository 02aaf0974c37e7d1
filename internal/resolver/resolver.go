// Package resolver decides, per dependency edge, whether a unit sees its provider's real outputs or mock outputs,
// and rewrites symbolic references in the unit's values accordingly.
package resolver

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/zclconf/go-cty/cty"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/worker"
	"github.com/runstack-io/runstack/pkg/log"
)

// OutputReader is the collaborator that knows whether a unit has been applied and what its outputs are. The real
// implementation reads persisted state; tests substitute an in-memory one.
type OutputReader interface {
	// IsApplied returns true if the unit has persisted state from a completed apply.
	IsApplied(ctx context.Context, unit *component.Unit) (bool, error)

	// ReadOutputs returns the unit's outputs as a cty object value.
	ReadOutputs(ctx context.Context, unit *component.Unit) (cty.Value, error)
}

// Resolver resolves the dependency edges of units ahead of executing an action on them.
type Resolver struct {
	logger     log.Logger
	outputs    OutputReader
	maxWorkers int
}

// New returns a Resolver that fetches outputs through the given reader, with at most maxWorkers concurrent
// fetches per unit.
func New(logger log.Logger, outputs OutputReader, maxWorkers int) *Resolver {
	return &Resolver{
		logger:     logger,
		outputs:    outputs,
		maxWorkers: maxWorkers,
	}
}

// ResolveUnit resolves every dependency edge of the given unit for the given action and stores the rewritten
// values in unit.ResolvedValues.
//
// Policy per edge: a disabled edge contributes nothing. An edge with skip_outputs stays ordering-only and its
// outputs are never fetched, even when available. Otherwise real outputs are fetched when the provider has been
// applied; mock outputs stand in when it hasn't and the action permits mocks; anything else is
// UnresolvedDependencyError.
//
// Rewriting is idempotent: only values that still equal the edge's reference string are replaced, so re-resolving
// an already-resolved value is a no-op.
func (r *Resolver) ResolveUnit(ctx context.Context, units component.Units, unit *component.Unit, action component.Action) error {
	resolved := xsync.NewMapOf[string, cty.Value]()

	pool := worker.NewWorkerPool(r.maxWorkers)

	for _, edge := range unit.Dependencies {
		if !edge.IsEnabled() {
			r.logger.Debugf("Dependency %s of unit %s is disabled, contributing no outputs", edge.TargetPath, unit.Path)
			continue
		}

		if !edge.ShouldFetchOutputs() {
			r.logger.Debugf("Dependency %s of unit %s has skip_outputs set, ordering only", edge.TargetPath, unit.Path)
			continue
		}

		pool.Submit(func() error {
			outputs, err := r.resolveEdge(ctx, units, unit, edge, action)
			if err != nil {
				return err
			}

			resolved.Store(edge.TargetPath, outputs)

			return nil
		})
	}

	if err := pool.GracefulStop(); err != nil {
		return err
	}

	values := unit.Values

	for _, edge := range unit.Dependencies {
		outputs, ok := resolved.Load(edge.TargetPath)
		if !ok {
			continue
		}

		values = rewriteReference(values, edge.RawReference, substitutionValue(outputs))
	}

	unit.ResolvedValues = values

	return nil
}

func (r *Resolver) resolveEdge(ctx context.Context, units component.Units, unit *component.Unit, edge *component.DependencyEdge, action component.Action) (cty.Value, error) {
	provider := units.FindByPath(edge.TargetPath)
	if provider == nil {
		return cty.NilVal, errors.Errorf("unit %s depends on %s, which is not a unit of this stack", unit.Path, edge.TargetPath)
	}

	applied, err := r.outputs.IsApplied(ctx, provider)
	if err != nil {
		return cty.NilVal, err
	}

	if applied {
		return r.outputs.ReadOutputs(ctx, provider)
	}

	if edge.MockAllowedFor(action) {
		r.logger.Debugf("Unit %s has not been applied yet, substituting mock outputs for %s", provider.Path, unit.Path)

		return *edge.MockOutputs, nil
	}

	return cty.NilVal, errors.New(UnresolvedDependencyError{
		UnitPath:       unit.Path,
		DependencyPath: edge.TargetPath,
		Action:         action,
	})
}

// substitutionValue picks what a symbolic reference resolves to: the sole output's value when the provider
// exposes exactly one output, otherwise the whole outputs mapping.
func substitutionValue(outputs cty.Value) cty.Value {
	if outputs.IsNull() || !outputs.IsKnown() {
		return outputs
	}

	ty := outputs.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return outputs
	}

	if outputs.LengthInt() != 1 {
		return outputs
	}

	it := outputs.ElementIterator()
	it.Next()
	_, sole := it.Element()

	return sole
}

// rewriteReference returns a copy of value with every string equal to raw replaced by the replacement value.
// Values that no longer match the reference string pass through untouched, which is what makes resolution
// idempotent.
func rewriteReference(value cty.Value, raw string, replacement cty.Value) cty.Value {
	if value.IsNull() || !value.IsKnown() {
		return value
	}

	ty := value.Type()

	switch {
	case ty == cty.String:
		if value.AsString() == raw {
			return replacement
		}

		return value

	case ty.IsObjectType() || ty.IsMapType():
		if value.LengthInt() == 0 {
			return value
		}

		attrs := map[string]cty.Value{}

		for it := value.ElementIterator(); it.Next(); {
			key, element := it.Element()
			attrs[key.AsString()] = rewriteReference(element, raw, replacement)
		}

		return cty.ObjectVal(attrs)

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		if value.LengthInt() == 0 {
			return value
		}

		var elements []cty.Value

		for it := value.ElementIterator(); it.Next(); {
			_, element := it.Element()
			elements = append(elements, rewriteReference(element, raw, replacement))
		}

		return cty.TupleVal(elements)
	}

	return value
}
