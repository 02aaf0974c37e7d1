// Package config reads and composes runstack configuration: the hierarchy fragments discovered by walking up the
// directory tree, and the stack definition files that declare units.
package config

import (
	"path/filepath"

	"github.com/zclconf/go-cty/cty"

	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/internal/hclparse"
	"github.com/runstack-io/runstack/options"
	"github.com/runstack-io/runstack/util"
)

// Level identifies which hierarchy level a configuration fragment belongs to.
type Level string

const (
	LevelRoot        Level = "root"
	LevelAccount     Level = "account"
	LevelRegion      Level = "region"
	LevelEnvironment Level = "env"
)

const (
	RootFragmentName    = "root.hcl"
	AccountFragmentName = "account.hcl"
	RegionFragmentName  = "region.hcl"
	EnvFragmentName     = "env.hcl"
)

// fragmentNames lists the hierarchy files in root-to-leaf precedence order within a single directory.
var fragmentNames = []struct {
	Name  string
	Level Level
}{
	{RootFragmentName, LevelRoot},
	{AccountFragmentName, LevelAccount},
	{RegionFragmentName, LevelRegion},
	{EnvFragmentName, LevelEnvironment},
}

// Fragment is one hierarchy configuration file: a flat mapping of named values at a given level.
type Fragment struct {
	Values map[string]cty.Value
	Path   string
	Level  Level
}

// Hierarchy is the ordered set of configuration fragments discovered for a location, root first.
type Hierarchy struct {
	Fragments []*Fragment
}

// LoadHierarchy walks upward through parent directories starting at dir, collecting hierarchy fragments until the
// directory containing root.hcl is reached. Missing optional fragments resolve to nothing; a missing account.hcl,
// or a walk that never finds root.hcl, fails with ConfigNotFoundError.
func LoadHierarchy(opts *options.RunOptions, dir string) (*Hierarchy, error) {
	parser := hclparse.NewParser(opts.Logger)

	// Collected leaf-to-root, reversed at the end.
	var collected []*Fragment

	foundRoot := false
	foundAccount := false

	currentDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.New(err)
	}

	maxFolders := opts.MaxFoldersToCheck
	if maxFolders <= 0 {
		maxFolders = options.DefaultMaxFoldersToCheck
	}

	// Cap the walk to avoid accidental infinite loops from cyclical symlinks.
	for range maxFolders {
		var dirFragments []*Fragment

		for _, candidate := range fragmentNames {
			fragmentPath := filepath.Join(currentDir, candidate.Name)
			if !util.FileExists(fragmentPath) {
				continue
			}

			fragment, err := loadFragment(parser, fragmentPath, candidate.Level)
			if err != nil {
				return nil, err
			}

			dirFragments = append(dirFragments, fragment)

			if candidate.Level == LevelRoot {
				foundRoot = true
			}

			if candidate.Level == LevelAccount {
				foundAccount = true
			}
		}

		// Fragments found closer to the unit must override ones found further up, so prepend.
		collected = append(dirFragments, collected...)

		if foundRoot {
			break
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}

		currentDir = parentDir
	}

	if !foundRoot {
		return nil, errors.New(ConfigNotFoundError{Fragment: RootFragmentName, StartDir: dir})
	}

	if !foundAccount {
		return nil, errors.New(ConfigNotFoundError{Fragment: AccountFragmentName, StartDir: dir})
	}

	return &Hierarchy{Fragments: collected}, nil
}

func loadFragment(parser *hclparse.Parser, path string, level Level) (*Fragment, error) {
	file, err := parser.ParseFromFile(path)
	if err != nil {
		return nil, err
	}

	attrs, err := file.JustAttributes()
	if err != nil {
		return nil, err
	}

	values := make(map[string]cty.Value, len(attrs))

	for name, attr := range attrs {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, errors.New(diags)
		}

		values[name] = value
	}

	return &Fragment{
		Values: values,
		Path:   filepath.ToSlash(path),
		Level:  level,
	}, nil
}

// Merged merges the fragments root-to-leaf with shallow override: a child-level value replaces a parent-level
// value with the same key outright, it is not deep-merged into it.
func (h *Hierarchy) Merged() map[string]cty.Value {
	merged := map[string]cty.Value{}

	for _, fragment := range h.Fragments {
		for key, value := range fragment.Values {
			merged[key] = value
		}
	}

	return merged
}

// MergedCty returns the merged hierarchy as a single cty object value, for use in HCL evaluation contexts.
func (h *Hierarchy) MergedCty() cty.Value {
	merged := h.Merged()
	if len(merged) == 0 {
		return cty.EmptyObjectVal
	}

	return cty.ObjectVal(merged)
}

// MergedValues returns the merged hierarchy as plain Go values, for collaborators that decode configuration with
// mapstructure rather than evaluating HCL expressions against it.
func (h *Hierarchy) MergedValues() (map[string]any, error) {
	return ctyValueToMap(h.MergedCty())
}
