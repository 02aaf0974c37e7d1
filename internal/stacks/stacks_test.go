package stacks_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/stacks"
	"github.com/runstack-io/runstack/options"
	"github.com/runstack-io/runstack/pkg/log"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestOptions(t *testing.T) *options.RunOptions {
	t.Helper()

	tmp := t.TempDir()

	opts := options.NewRunOptions()
	opts.WorkingDir = tmp
	opts.StackConfigPath = filepath.Join(tmp, options.DefaultStackConfigName)
	opts.OutputDir = filepath.Join(tmp, options.DefaultStackDir)
	opts.Logger = log.New(log.WithLevel(log.ErrorLevel))

	return opts
}

func TestGenerateCopiesLocalTemplatesAndWritesValues(t *testing.T) {
	t.Parallel()

	opts := newTestOptions(t)

	writeFile(t, filepath.Join(opts.WorkingDir, "modules", "vpc", "main.tf"), `resource "null_resource" "vpc" {}`)

	stack := &component.Stack{
		Name: "stack",
		Dir:  opts.WorkingDir,
		Units: component.Units{
			{
				Name:   "vpc",
				Source: "./modules/vpc",
				Path:   "vpc",
				Values: cty.ObjectVal(map[string]cty.Value{
					"cidr": cty.StringVal("10.0.0.0/16"),
				}),
			},
		},
	}

	require.NoError(t, stacks.Generate(context.Background(), opts, stack))

	copied := filepath.Join(opts.OutputDir, "vpc", "main.tf")
	assert.FileExists(t, copied)

	valuesPath := filepath.Join(opts.OutputDir, "vpc", options.DefaultValuesFileName)
	content, err := os.ReadFile(valuesPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `cidr = "10.0.0.0/16"`)
}

func TestGeneratePrefersResolvedValues(t *testing.T) {
	t.Parallel()

	opts := newTestOptions(t)

	writeFile(t, filepath.Join(opts.WorkingDir, "modules", "alb", "main.tf"), "")

	stack := &component.Stack{
		Name: "stack",
		Dir:  opts.WorkingDir,
		Units: component.Units{
			{
				Name:   "alb",
				Source: "./modules/alb",
				Path:   "alb",
				Values: cty.ObjectVal(map[string]cty.Value{
					"certificate": cty.StringVal("../acm"),
				}),
				ResolvedValues: cty.ObjectVal(map[string]cty.Value{
					"certificate": cty.StringVal("real-arn"),
				}),
			},
		},
	}

	require.NoError(t, stacks.Generate(context.Background(), opts, stack))

	content, err := os.ReadFile(filepath.Join(opts.OutputDir, "alb", options.DefaultValuesFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), `certificate = "real-arn"`)
}

func TestGenerateUsesSourceSubdir(t *testing.T) {
	t.Parallel()

	opts := newTestOptions(t)

	writeFile(t, filepath.Join(opts.WorkingDir, "modules", "networking", "vpc", "main.tf"), "")

	stack := &component.Stack{
		Name: "stack",
		Dir:  opts.WorkingDir,
		Units: component.Units{
			{
				Name:   "vpc",
				Source: "./modules//networking/vpc",
				Path:   "vpc",
				Values: cty.EmptyObjectVal,
			},
		},
	}

	require.NoError(t, stacks.Generate(context.Background(), opts, stack))

	assert.FileExists(t, filepath.Join(opts.OutputDir, "vpc", "main.tf"))
}

func TestCleanRemovesGeneratedDirectories(t *testing.T) {
	t.Parallel()

	opts := newTestOptions(t)

	writeFile(t, filepath.Join(opts.OutputDir, "vpc", "main.tf"), "")
	writeFile(t, filepath.Join(opts.WorkingDir, "nested", options.DefaultStackDir, "db", "main.tf"), "")

	require.NoError(t, stacks.Clean(opts))

	assert.NoDirExists(t, opts.OutputDir)
	assert.NoDirExists(t, filepath.Join(opts.WorkingDir, "nested", options.DefaultStackDir))
}

func TestDiscoverFindsStackFiles(t *testing.T) {
	t.Parallel()

	opts := newTestOptions(t)

	writeFile(t, filepath.Join(opts.WorkingDir, "root.hcl"), `org = "acme"`)
	writeFile(t, filepath.Join(opts.WorkingDir, "account.hcl"), `account = "123456"`)

	stackConfig := `
unit "vpc" {
  source = "./modules/vpc"
  path   = "vpc"
  values = {}
}
`
	writeFile(t, filepath.Join(opts.WorkingDir, "envs", "prod", options.DefaultStackConfigName), stackConfig)
	writeFile(t, filepath.Join(opts.WorkingDir, "envs", "staging", options.DefaultStackConfigName), stackConfig)

	found, err := stacks.Discover(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, "prod", found[0].Name)
	assert.Equal(t, "staging", found[1].Name)
}
