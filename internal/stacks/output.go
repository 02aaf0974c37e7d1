package stacks

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/resolver"
	"github.com/runstack-io/runstack/options"
)

// Output prints the recorded outputs of the named unit, or of every applied unit when unitName is empty, as a
// JSON object keyed by unit path.
func Output(ctx context.Context, opts *options.RunOptions, stack *component.Stack, outputs resolver.OutputReader, unitName string) error {
	units := stack.Units

	if unitName != "" {
		unit := stack.Units.FindByName(unitName)
		if unit == nil {
			return errors.Errorf("no unit named %s in stack %s", unitName, stack.Name)
		}

		units = component.Units{unit}
	}

	collected := map[string]cty.Value{}

	for _, unit := range units {
		applied, err := outputs.IsApplied(ctx, unit)
		if err != nil {
			return err
		}

		if !applied {
			if unitName != "" {
				return errors.Errorf("unit %s has no recorded outputs; apply it first", unitName)
			}

			continue
		}

		value, err := outputs.ReadOutputs(ctx, unit)
		if err != nil {
			return err
		}

		collected[unit.Path] = value
	}

	result := cty.EmptyObjectVal
	if len(collected) > 0 {
		result = cty.ObjectVal(collected)
	}

	rendered, err := ctyjson.Marshal(result, result.Type())
	if err != nil {
		return errors.WithStackTrace(err)
	}

	_, err = fmt.Fprintln(opts.Writer, string(rendered))

	return err
}
