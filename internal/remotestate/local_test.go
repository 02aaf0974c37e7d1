package remotestate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/remotestate"
	"github.com/runstack-io/runstack/pkg/log"
)

func newStore(t *testing.T) *remotestate.LocalStore {
	t.Helper()

	config := &remotestate.Config{
		Bucket:      "acme-state",
		Account:     "123456",
		Environment: "prod",
		BaseDir:     t.TempDir(),
	}

	return remotestate.NewLocalStore(config, log.New(log.WithLevel(log.ErrorLevel)))
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	config, err := remotestate.ParseConfig(map[string]any{
		"state_bucket": "acme-state",
		"account":      "123456",
		"env":          "prod",
		"region":       "eu-west-1", // unrelated hierarchy keys pass through
	})
	require.NoError(t, err)

	assert.Equal(t, "acme-state-123456-prod", config.BucketID())
	assert.Equal(t, "acme-state-123456-prod/vpc/terraform.tfstate", config.StateKey("vpc"))
	assert.Equal(t, "acme-state-123456-prod/vpc/terraform.tfstate.lock", config.LockKey("vpc"))
}

func TestParseConfigWithoutEnvironment(t *testing.T) {
	t.Parallel()

	config, err := remotestate.ParseConfig(map[string]any{
		"state_bucket": "acme-state",
		"account":      "123456",
	})
	require.NoError(t, err)

	assert.Equal(t, "acme-state-123456", config.BucketID())
}

func TestParseConfigRequiresBucketAndAccount(t *testing.T) {
	t.Parallel()

	_, err := remotestate.ParseConfig(map[string]any{"account": "123456"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state_bucket")

	_, err = remotestate.ParseConfig(map[string]any{"state_bucket": "acme-state"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account")
}

func TestLocalStoreRoundTripsOutputs(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()
	unit := &component.Unit{Name: "vpc", Path: "vpc"}

	applied, err := store.IsApplied(ctx, unit)
	require.NoError(t, err)
	assert.False(t, applied)

	outputs := map[string]cty.Value{
		"id":   cty.StringVal("vpc-123"),
		"cidr": cty.StringVal("10.0.0.0/16"),
	}
	require.NoError(t, store.WriteOutputs(ctx, unit, outputs))

	applied, err = store.IsApplied(ctx, unit)
	require.NoError(t, err)
	assert.True(t, applied)

	read, err := store.ReadOutputs(ctx, unit)
	require.NoError(t, err)
	assert.Equal(t, "vpc-123", read.GetAttr("id").AsString())
	assert.Equal(t, "10.0.0.0/16", read.GetAttr("cidr").AsString())
}

func TestLocalStoreLockIsReleasable(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()
	unit := &component.Unit{Name: "vpc", Path: "vpc"}

	unlock, err := store.LockUnit(ctx, unit)
	require.NoError(t, err)
	require.NoError(t, unlock())

	// Lock again to prove the first release worked.
	unlock, err = store.LockUnit(ctx, unit)
	require.NoError(t, err)
	require.NoError(t, unlock())
}
