package config

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/hclparse"
	"github.com/runstack-io/runstack/options"
)

// MaxIter caps the iterative evaluation of locals, which otherwise would loop forever on (unsupported) circular
// references between locals.
const MaxIter = 1000

// StackConfigFile represents the structure of a runstack.hcl stack file.
type StackConfigFile struct {
	Locals *localsConfig `hcl:"locals,block"`
	Units  []*UnitConfig `hcl:"unit,block"`
}

// localsConfig captures the locals block without a fixed schema; attributes are evaluated iteratively so locals
// may reference each other.
type localsConfig struct {
	Remain hcl.Body `hcl:",remain"`
}

// UnitConfig is a unit block of a stack file.
type UnitConfig struct {
	Name                  string              `hcl:",label"`
	Source                string              `hcl:"source,attr"`
	Path                  string              `hcl:"path,attr"`
	Values                *cty.Value          `hcl:"values,attr"`
	NoDependencyInference *bool               `hcl:"no_dependency_inference,attr"`
	Dependencies          []*DependencyConfig `hcl:"dependency,block"`
}

// DependencyConfig is an explicit dependency block within a unit block. Path is relative to the unit's own path.
type DependencyConfig struct {
	Name                      string     `hcl:",label"`
	Path                      string     `hcl:"path,attr"`
	Enabled                   *bool      `hcl:"enabled,attr"`
	SkipOutputs               *bool      `hcl:"skip_outputs,attr"`
	MockOutputs               *cty.Value `hcl:"mock_outputs,attr"`
	MockOutputsAllowedActions *[]string  `hcl:"mock_outputs_allowed_actions,attr"`
}

// LoadStack is the full pipeline from a stack file on disk to a built stack: discover and merge the configuration
// hierarchy, evaluate locals, decode and validate the stack file, and build the stack with its dependency edges.
func LoadStack(opts *options.RunOptions) (*component.Stack, error) {
	stackDir := filepath.Dir(opts.StackConfigPath)

	hierarchy, err := LoadHierarchy(opts, stackDir)
	if err != nil {
		return nil, err
	}

	config, locals, err := ReadStackConfigFile(opts, hierarchy)
	if err != nil {
		return nil, err
	}

	return BuildStack(opts, config, locals)
}

// ReadStackConfigFile reads and evaluates the stack file at opts.StackConfigPath. Unit values expressions are
// evaluated against the stack's locals and the merged hierarchy configuration. Returns the decoded file and the
// evaluated locals.
func ReadStackConfigFile(opts *options.RunOptions, hierarchy *Hierarchy) (*StackConfigFile, map[string]cty.Value, error) {
	opts.Logger.Debugf("Reading stack config file at %s", opts.StackConfigPath)

	parser := hclparse.NewParser(opts.Logger)

	file, err := parser.ParseFromFile(opts.StackConfigPath)
	if err != nil {
		return nil, nil, err
	}

	return decodeStackConfig(file, hierarchy)
}

// ParseStackConfigString parses stack config content directly, mainly for tests.
func ParseStackConfigString(opts *options.RunOptions, content, configPath string, hierarchy *Hierarchy) (*StackConfigFile, map[string]cty.Value, error) {
	parser := hclparse.NewParser(opts.Logger)

	file, err := parser.ParseFromString(content, configPath)
	if err != nil {
		return nil, nil, err
	}

	return decodeStackConfig(file, hierarchy)
}

func decodeStackConfig(file *hclparse.File, hierarchy *Hierarchy) (*StackConfigFile, map[string]cty.Value, error) {
	hierarchyCty := cty.EmptyObjectVal
	if hierarchy != nil {
		hierarchyCty = hierarchy.MergedCty()
	}

	locals, err := evaluateLocals(file, hierarchyCty)
	if err != nil {
		return nil, nil, err
	}

	evalCtx := stackEvalContext(locals, hierarchyCty)

	config := &StackConfigFile{}
	if err := file.Decode(config, evalCtx); err != nil {
		return nil, nil, err
	}

	if err := ValidateStackConfig(config); err != nil {
		return nil, nil, err
	}

	return config, locals, nil
}

func stackEvalContext(locals map[string]cty.Value, hierarchyCty cty.Value) *hcl.EvalContext {
	localCty := cty.EmptyObjectVal
	if len(locals) > 0 {
		localCty = cty.ObjectVal(locals)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"local":  localCty,
			"config": hierarchyCty,
		},
		Functions: map[string]function.Function{
			"merge": mergeFunction,
		},
	}
}

// evaluateLocals evaluates the locals block iteratively: each pass evaluates every attribute whose references are
// already satisfied, and the loop ends when a pass makes no progress.
func evaluateLocals(file *hclparse.File, hierarchyCty cty.Value) (map[string]cty.Value, error) {
	localsBlocks, err := file.Blocks("locals", false)
	if err != nil {
		return nil, err
	}

	if len(localsBlocks) == 0 {
		return map[string]cty.Value{}, nil
	}

	if len(localsBlocks) > 1 {
		return nil, errors.Errorf("up to one locals block is allowed per stack file, but found %d in %s", len(localsBlocks), file.ConfigPath)
	}

	attrs, err := localsBlocks[0].JustAttributes()
	if err != nil {
		return nil, err
	}

	evaluated := map[string]cty.Value{}

	for iterations := 0; len(attrs) > 0; iterations++ {
		if iterations > MaxIter {
			return nil, errors.New(MaxIterError{})
		}

		evalCtx := stackEvalContext(evaluated, hierarchyCty)

		progress := false
		remaining := hcl.Attributes{}

		for name, attr := range attrs {
			value, diags := attr.Expr.Value(evalCtx)
			if diags.HasErrors() {
				remaining[name] = attr
				continue
			}

			evaluated[name] = value
			progress = true
		}

		if !progress {
			// Evaluate once more to surface the real diagnostics instead of a generic message.
			for _, attr := range remaining {
				if _, diags := attr.Expr.Value(stackEvalContext(evaluated, hierarchyCty)); diags.HasErrors() {
					return nil, errors.New(diags)
				}
			}

			break
		}

		attrs = remaining
	}

	return evaluated, nil
}

// ValidateStackConfig validates a StackConfigFile according to the rules:
//   - the stack declares at least one unit
//   - unit name, source, and path are not empty
//   - unit names and paths are unique within the stack
func ValidateStackConfig(config *StackConfigFile) error {
	if len(config.Units) == 0 {
		return errors.New("stack config must contain at least one unit")
	}

	validationErrors := &errors.MultiError{}

	names := make(map[string]bool, len(config.Units))
	paths := make(map[string]bool, len(config.Units))

	for i, unit := range config.Units {
		name := strings.TrimSpace(unit.Name)
		unitPath := path.Clean(strings.TrimSpace(unit.Path))

		if name == "" {
			validationErrors = validationErrors.Append(errors.Errorf("unit at index %d has empty name", i))
		}

		if strings.TrimSpace(unit.Source) == "" {
			validationErrors = validationErrors.Append(errors.Errorf("unit '%s' has empty source", unit.Name))
		}

		if unitPath == "" || unitPath == "." {
			validationErrors = validationErrors.Append(errors.Errorf("unit '%s' has empty path", unit.Name))
		}

		if names[name] {
			validationErrors = validationErrors.Append(errors.New(DuplicateUnitNameError{Name: unit.Name}))
		}

		if name != "" {
			names[name] = true
		}

		if paths[unitPath] {
			validationErrors = validationErrors.Append(errors.New(DuplicateUnitPathError{Path: unit.Path}))
		}

		if unitPath != "" {
			paths[unitPath] = true
		}
	}

	return validationErrors.ErrorOrNil()
}

// BuildStack turns a validated StackConfigFile into a component.Stack: sources are parsed, explicit dependency
// blocks become edges, and symbolic references found in unit values register inferred edges unless the unit opts
// out with no_dependency_inference.
func BuildStack(opts *options.RunOptions, config *StackConfigFile, locals map[string]cty.Value) (*component.Stack, error) {
	stackDir := filepath.ToSlash(filepath.Dir(opts.StackConfigPath))

	units := make(component.Units, 0, len(config.Units))

	for _, unitCfg := range config.Units {
		if _, err := ParseSourceReference(unitCfg.Source); err != nil {
			return nil, err
		}

		values := cty.EmptyObjectVal
		if unitCfg.Values != nil {
			values = *unitCfg.Values
		}

		units = append(units, &component.Unit{
			Name:   unitCfg.Name,
			Source: unitCfg.Source,
			Path:   path.Clean(unitCfg.Path),
			Values: values,
		})
	}

	for i, unitCfg := range config.Units {
		unit := units[i]

		for _, depCfg := range unitCfg.Dependencies {
			unit.Dependencies = append(unit.Dependencies, &component.DependencyEdge{
				TargetPath:                resolveSiblingPath(unit.Path, depCfg.Path),
				RawReference:              depCfg.Path,
				Enabled:                   depCfg.Enabled,
				SkipOutputs:               depCfg.SkipOutputs,
				MockOutputs:               depCfg.MockOutputs,
				MockOutputsAllowedActions: depCfg.MockOutputsAllowedActions,
			})
		}

		if unitCfg.NoDependencyInference != nil && *unitCfg.NoDependencyInference {
			continue
		}

		inferDependencies(unit, units)
	}

	return &component.Stack{
		Name:   path.Base(stackDir),
		Dir:    stackDir,
		Locals: locals,
		Units:  units,
	}, nil
}

// inferDependencies scans the unit's values for strings that are exactly a relative path matching a sibling
// unit's declared path, and registers a dependency edge for each distinct one not already declared explicitly.
func inferDependencies(unit *component.Unit, units component.Units) {
	declared := make(map[string]struct{}, len(unit.Dependencies))
	for _, edge := range unit.Dependencies {
		declared[edge.TargetPath] = struct{}{}
	}

	walkStringValues(unit.Values, func(candidate string) {
		if !strings.HasPrefix(candidate, "../") && !strings.HasPrefix(candidate, "./") {
			return
		}

		targetPath := resolveSiblingPath(unit.Path, candidate)

		sibling := units.FindByPath(targetPath)
		if sibling == nil || sibling == unit {
			return
		}

		if _, ok := declared[targetPath]; ok {
			return
		}

		declared[targetPath] = struct{}{}

		unit.Dependencies = append(unit.Dependencies, &component.DependencyEdge{
			TargetPath:   targetPath,
			RawReference: candidate,
		})
	})
}

// resolveSiblingPath resolves a reference written relative to the unit's directory into a canonical stack path.
func resolveSiblingPath(unitPath, reference string) string {
	return path.Clean(path.Join(unitPath, reference))
}

// walkStringValues calls fn for every string found anywhere inside the given value.
func walkStringValues(value cty.Value, fn func(string)) {
	if value.IsNull() || !value.IsKnown() {
		return
	}

	ty := value.Type()

	switch {
	case ty == cty.String:
		fn(value.AsString())
	case ty.IsObjectType() || ty.IsMapType():
		for it := value.ElementIterator(); it.Next(); {
			_, element := it.Element()
			walkStringValues(element, fn)
		}
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		for it := value.ElementIterator(); it.Next(); {
			_, element := it.Element()
			walkStringValues(element, fn)
		}
	}
}
