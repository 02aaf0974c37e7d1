package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runstack-io/runstack/config"
	"github.com/runstack-io/runstack/internal/errors"
)

func TestParseSourceReference(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		source   string
		location string
		subdir   string
		ref      string
	}{
		{
			source:   "github.com/acme/modules//networking/vpc?ref=v0.85.0",
			location: "github.com/acme/modules",
			subdir:   "networking/vpc",
			ref:      "v0.85.0",
		},
		{
			source:   "github.com/acme/modules//vpc",
			location: "github.com/acme/modules",
			subdir:   "vpc",
		},
		{
			source:   "./modules/vpc",
			location: "./modules/vpc",
		},
		{
			source:   "git::https://example.com/acme/infra.git?ref=feature/new-vpc",
			location: "git::https://example.com/acme/infra.git",
			ref:      "feature/new-vpc",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			t.Parallel()

			ref, err := config.ParseSourceReference(tc.source)
			require.NoError(t, err)

			assert.Equal(t, tc.location, ref.Location)
			assert.Equal(t, tc.subdir, ref.Subdir)
			assert.Equal(t, tc.ref, ref.Ref)
			assert.Equal(t, tc.source, ref.String())
		})
	}
}

func TestParseSourceReferenceErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		source string
	}{
		{
			name:   "ref before subdir separator",
			source: "github.com/acme/modules?ref=v0.85.0//vpc",
		},
		{
			name:   "empty source",
			source: "   ",
		},
		{
			name:   "query without ref parameter",
			source: "github.com/acme/modules//vpc?version=1",
		},
		{
			name:   "malformed version tag",
			source: "github.com/acme/modules//vpc?ref=v0..85",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.ParseSourceReference(tc.source)
			require.Error(t, err)

			var sourceErr config.InvalidSourceError
			assert.True(t, errors.As(err, &sourceErr))
		})
	}
}
