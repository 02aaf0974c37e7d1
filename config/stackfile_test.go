package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/runstack-io/runstack/config"
	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/options"
)

func parseStack(t *testing.T, content string) (*config.StackConfigFile, map[string]cty.Value) {
	t.Helper()

	opts := options.NewRunOptions()

	cfg, locals, err := config.ParseStackConfigString(opts, content, "runstack.hcl", nil)
	require.NoError(t, err)

	return cfg, locals
}

func buildStack(t *testing.T, content string) *component.Stack {
	t.Helper()

	opts := options.NewRunOptions()

	cfg, locals, err := config.ParseStackConfigString(opts, content, "runstack.hcl", nil)
	require.NoError(t, err)

	stack, err := config.BuildStack(opts, cfg, locals)
	require.NoError(t, err)

	return stack
}

func TestParseStackWithLocals(t *testing.T) {
	t.Parallel()

	cfg, locals := parseStack(t, `
locals {
  version = "v1.2.0"
  source  = "github.com/acme/modules//vpc?ref=${local.version}"
}

unit "vpc" {
  source = local.source
  path   = "vpc"
  values = {
    cidr = "10.0.0.0/16"
  }
}
`)

	require.Len(t, cfg.Units, 1)
	assert.Equal(t, "github.com/acme/modules//vpc?ref=v1.2.0", cfg.Units[0].Source)
	assert.Equal(t, "v1.2.0", locals["version"].AsString())
}

func TestLocalsMayReferenceEachOtherOutOfOrder(t *testing.T) {
	t.Parallel()

	_, locals := parseStack(t, `
locals {
  full  = "${local.base}-prod"
  base  = "acme"
}

unit "vpc" {
  source = "./modules/vpc"
  path   = "vpc"
  values = {}
}
`)

	assert.Equal(t, "acme-prod", locals["full"].AsString())
}

func TestValidateRejectsDuplicateUnitNames(t *testing.T) {
	t.Parallel()

	opts := options.NewRunOptions()

	_, _, err := config.ParseStackConfigString(opts, `
unit "vpc" {
  source = "./modules/vpc"
  path   = "vpc-a"
  values = {}
}

unit "vpc" {
  source = "./modules/vpc"
  path   = "vpc-b"
  values = {}
}
`, "runstack.hcl", nil)
	require.Error(t, err)

	var dupErr config.DuplicateUnitNameError
	assert.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "vpc", dupErr.Name)
}

func TestValidateRejectsDuplicateUnitPaths(t *testing.T) {
	t.Parallel()

	opts := options.NewRunOptions()

	_, _, err := config.ParseStackConfigString(opts, `
unit "vpc-a" {
  source = "./modules/vpc"
  path   = "vpc"
  values = {}
}

unit "vpc-b" {
  source = "./modules/vpc"
  path   = "vpc"
  values = {}
}
`, "runstack.hcl", nil)
	require.Error(t, err)

	var dupErr config.DuplicateUnitPathError
	assert.True(t, errors.As(err, &dupErr))
}

func TestValidateRejectsStackWithoutUnits(t *testing.T) {
	t.Parallel()

	opts := options.NewRunOptions()

	_, _, err := config.ParseStackConfigString(opts, `
locals {
  region = "eu-west-1"
}
`, "runstack.hcl", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one unit")
}

func TestBuildStackInfersDependenciesFromValues(t *testing.T) {
	t.Parallel()

	stack := buildStack(t, `
unit "vpc" {
  source = "./modules/vpc"
  path   = "vpc"
  values = {}
}

unit "db" {
  source = "./modules/db"
  path   = "db"
  values = {
    network = "../vpc"
  }
}
`)

	db := stack.Units.FindByPath("db")
	require.NotNil(t, db)
	require.Len(t, db.Dependencies, 1)
	assert.Equal(t, "vpc", db.Dependencies[0].TargetPath)
	assert.Equal(t, "../vpc", db.Dependencies[0].RawReference)
}

func TestBuildStackSkipsInferenceWhenOptedOut(t *testing.T) {
	t.Parallel()

	stack := buildStack(t, `
unit "vpc" {
  source = "./modules/vpc"
  path   = "vpc"
  values = {}
}

unit "db" {
  source                  = "./modules/db"
  path                    = "db"
  no_dependency_inference = true
  values = {
    network = "../vpc"
  }
}
`)

	db := stack.Units.FindByPath("db")
	require.NotNil(t, db)
	assert.Empty(t, db.Dependencies)
}

func TestBuildStackExplicitDependencyBlock(t *testing.T) {
	t.Parallel()

	stack := buildStack(t, `
unit "acm" {
  source = "./modules/acm"
  path   = "acm"
  values = {}
}

unit "alb" {
  source = "./modules/alb"
  path   = "alb"
  values = {
    certificate = "../acm"
  }

  dependency "acm" {
    path = "../acm"
    mock_outputs = {
      cert_arn = "mock-arn"
    }
    mock_outputs_allowed_actions = ["validate", "plan"]
  }
}
`)

	alb := stack.Units.FindByPath("alb")
	require.NotNil(t, alb)
	require.Len(t, alb.Dependencies, 1)

	edge := alb.Dependencies[0]
	assert.Equal(t, "acm", edge.TargetPath)
	assert.True(t, edge.IsEnabled())
	assert.True(t, edge.ShouldFetchOutputs())
	require.NotNil(t, edge.MockOutputs)
	assert.Equal(t, "mock-arn", edge.MockOutputs.GetAttr("cert_arn").AsString())
	assert.True(t, edge.MockAllowedFor(component.ActionPlan))
	assert.False(t, edge.MockAllowedFor(component.ActionApply))
}

func TestBuildStackExplicitEdgeNotDuplicatedByInference(t *testing.T) {
	t.Parallel()

	stack := buildStack(t, `
unit "vpc" {
  source = "./modules/vpc"
  path   = "vpc"
  values = {}
}

unit "db" {
  source = "./modules/db"
  path   = "db"
  values = {
    network = "../vpc"
  }

  dependency "vpc" {
    path         = "../vpc"
    skip_outputs = true
  }
}
`)

	db := stack.Units.FindByPath("db")
	require.NotNil(t, db)
	require.Len(t, db.Dependencies, 1)
	assert.False(t, db.Dependencies[0].ShouldFetchOutputs())
}

func TestBuildStackNestedUnitPaths(t *testing.T) {
	t.Parallel()

	stack := buildStack(t, `
unit "api" {
  source = "./modules/api"
  path   = "apps/api"
  values = {
    db_url = "../../data/db"
  }
}

unit "db" {
  source = "./modules/db"
  path   = "data/db"
  values = {}
}
`)

	api := stack.Units.FindByPath("apps/api")
	require.NotNil(t, api)
	require.Len(t, api.Dependencies, 1)
	assert.Equal(t, "data/db", api.Dependencies[0].TargetPath)
}

func TestBuildStackRejectsInvalidSource(t *testing.T) {
	t.Parallel()

	opts := options.NewRunOptions()

	cfg, locals, err := config.ParseStackConfigString(opts, `
unit "vpc" {
  source = "github.com/acme/modules?ref=v1.0.0//vpc"
  path   = "vpc"
  values = {}
}
`, "runstack.hcl", nil)
	require.NoError(t, err)

	_, err = config.BuildStack(opts, cfg, locals)
	require.Error(t, err)

	var sourceErr config.InvalidSourceError
	assert.True(t, errors.As(err, &sourceErr))
}

func TestMergeFunctionDeepMergesValues(t *testing.T) {
	t.Parallel()

	cfg, _ := parseStack(t, `
locals {
  defaults = {
    tags  = { team = "platform" }
    zones = ["a"]
  }
}

unit "vpc" {
  source = "./modules/vpc"
  path   = "vpc"
  values = merge(local.defaults, {
    tags  = { env = "prod" }
    zones = ["b"]
  })
}
`)

	values := *cfg.Units[0].Values
	tags := values.GetAttr("tags")

	// Maps merge recursively, lists concatenate.
	assert.Equal(t, "platform", tags.GetAttr("team").AsString())
	assert.Equal(t, "prod", tags.GetAttr("env").AsString())
	assert.Equal(t, 2, values.GetAttr("zones").LengthInt())
}
