package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runstack-io/runstack/config"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/options"
)

func writeFragment(t *testing.T, dir, name, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// newHierarchyTree lays out root/account/region/env fragments over nested directories:
//
//	tmp/root.hcl
//	tmp/prod-account/account.hcl
//	tmp/prod-account/eu-west-1/region.hcl
//	tmp/prod-account/eu-west-1/staging/env.hcl
func newHierarchyTree(t *testing.T) string {
	t.Helper()

	tmp := t.TempDir()

	writeFragment(t, tmp, config.RootFragmentName, `
org    = "acme"
region = "us-east-1"
`)
	writeFragment(t, filepath.Join(tmp, "prod-account"), config.AccountFragmentName, `
account = "123456"
env     = "prod"
`)
	writeFragment(t, filepath.Join(tmp, "prod-account", "eu-west-1"), config.RegionFragmentName, `
region = "eu-west-1"
`)
	writeFragment(t, filepath.Join(tmp, "prod-account", "eu-west-1", "staging"), config.EnvFragmentName, `
env = "staging"
`)

	return tmp
}

func TestLoadHierarchyCloserFragmentsWin(t *testing.T) {
	t.Parallel()

	tmp := newHierarchyTree(t)
	opts := options.NewRunOptions()

	hierarchy, err := config.LoadHierarchy(opts, filepath.Join(tmp, "prod-account", "eu-west-1", "staging"))
	require.NoError(t, err)

	merged := hierarchy.Merged()

	// Shallow override, leaf wins over every ancestor.
	assert.Equal(t, "acme", merged["org"].AsString())
	assert.Equal(t, "123456", merged["account"].AsString())
	assert.Equal(t, "eu-west-1", merged["region"].AsString())
	assert.Equal(t, "staging", merged["env"].AsString())
}

func TestLoadHierarchyIntermediateLevels(t *testing.T) {
	t.Parallel()

	tmp := newHierarchyTree(t)
	opts := options.NewRunOptions()

	hierarchy, err := config.LoadHierarchy(opts, filepath.Join(tmp, "prod-account", "eu-west-1"))
	require.NoError(t, err)

	merged := hierarchy.Merged()

	// Without the env fragment in scope, the account-level value applies.
	assert.Equal(t, "prod", merged["env"].AsString())
	assert.Equal(t, "eu-west-1", merged["region"].AsString())
}

func TestLoadHierarchyRequiresRootMarker(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	writeFragment(t, tmp, config.AccountFragmentName, `account = "123456"`)

	opts := options.NewRunOptions()
	opts.MaxFoldersToCheck = 3

	_, err := config.LoadHierarchy(opts, tmp)
	require.Error(t, err)

	var notFoundErr config.ConfigNotFoundError
	require.True(t, errors.As(err, &notFoundErr))
	assert.Equal(t, config.RootFragmentName, notFoundErr.Fragment)
}

func TestLoadHierarchyRequiresAccountFragment(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	writeFragment(t, tmp, config.RootFragmentName, `org = "acme"`)

	opts := options.NewRunOptions()

	_, err := config.LoadHierarchy(opts, tmp)
	require.Error(t, err)

	var notFoundErr config.ConfigNotFoundError
	require.True(t, errors.As(err, &notFoundErr))
	assert.Equal(t, config.AccountFragmentName, notFoundErr.Fragment)
}

func TestMergedValuesReturnsPlainGoValues(t *testing.T) {
	t.Parallel()

	tmp := newHierarchyTree(t)
	opts := options.NewRunOptions()

	hierarchy, err := config.LoadHierarchy(opts, filepath.Join(tmp, "prod-account"))
	require.NoError(t, err)

	values, err := hierarchy.MergedValues()
	require.NoError(t, err)

	assert.Equal(t, "123456", values["account"])
	assert.Equal(t, "prod", values["env"])
}
