// Package stacks materializes stack definitions on disk: it expands units into generated working directories,
// discovers stack files under a tree, and cleans generated directories up again.
package stacks

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/runstack-io/runstack/config"
	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/options"
	"github.com/runstack-io/runstack/util"
)

const dirPerm = 0755

// Generate expands every unit of the stack into its working directory under opts.OutputDir: the unit's template
// source is copied (local paths) or fetched (remote locations), and the unit's values are written next to it as
// an HCL values file.
func Generate(ctx context.Context, opts *options.RunOptions, stack *component.Stack) error {
	if err := os.MkdirAll(opts.OutputDir, dirPerm); err != nil {
		return errors.Errorf("failed to create stack output directory %s: %w", opts.OutputDir, err)
	}

	for _, unit := range stack.Units {
		opts.Logger.Infof("Generating unit %s into %s", unit.Name, unit.Path)

		if err := generateUnit(ctx, opts, unit); err != nil {
			return err
		}
	}

	return nil
}

func generateUnit(ctx context.Context, opts *options.RunOptions, unit *component.Unit) error {
	source, err := config.ParseSourceReference(unit.Source)
	if err != nil {
		return err
	}

	dest, err := filepath.Abs(filepath.Join(opts.OutputDir, filepath.FromSlash(unit.Path)))
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if localDir, ok := localSourceDir(opts, source); ok {
		if err := util.CopyFolderContents(localDir, dest, skipGeneratedAndVCS); err != nil {
			return errors.Errorf("failed to copy unit %s templates: %w", unit.Name, err)
		}
	} else {
		if err := os.MkdirAll(dest, dirPerm); err != nil {
			return errors.WithStackTrace(err)
		}

		client := getter.Client{
			Ctx:  ctx,
			Src:  source.String(),
			Dst:  dest,
			Pwd:  opts.WorkingDir,
			Mode: getter.ClientModeAny,
		}

		if err := client.Get(); err != nil {
			return errors.Errorf("failed to fetch unit %s source %s: %w", unit.Name, unit.Source, err)
		}
	}

	return WriteValuesFile(unit, dest)
}

// localSourceDir resolves the source to a directory on disk when the location is a plain local path. Remote
// locations (git, http, registry style addresses) are left to go-getter.
func localSourceDir(opts *options.RunOptions, source *config.SourceReference) (string, bool) {
	if strings.Contains(source.Location, "://") {
		return "", false
	}

	dir := source.Location
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(opts.WorkingDir, dir)
	}

	if source.Subdir != "" {
		dir = filepath.Join(dir, filepath.FromSlash(source.Subdir))
	}

	if !util.IsDir(dir) {
		return "", false
	}

	return dir, true
}

func skipGeneratedAndVCS(absolutePath string) bool {
	base := filepath.Base(absolutePath)

	return base != ".git" && base != options.DefaultStackDir
}

// WriteValuesFile renders the unit's values mapping as an HCL file inside the unit's generated directory.
// Resolved values win over the raw ones, so a generate run that follows resolution persists substituted outputs.
func WriteValuesFile(unit *component.Unit, dest string) error {
	values := unit.Values
	if unit.ResolvedValues != cty.NilVal {
		values = unit.ResolvedValues
	}

	file := hclwrite.NewEmptyFile()
	body := file.Body()

	if values != cty.NilVal && values.Type().IsObjectType() {
		valueMap := values.AsValueMap()
		for _, key := range util.SortedKeys(valueMap) {
			body.SetAttributeValue(key, valueMap[key])
		}
	}

	valuesPath := filepath.Join(dest, options.DefaultValuesFileName)

	if err := os.WriteFile(valuesPath, file.Bytes(), 0644); err != nil {
		return errors.Errorf("failed to write values file for unit %s: %w", unit.Name, err)
	}

	return nil
}
