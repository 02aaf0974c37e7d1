// Package remotestate computes the persisted-state layout for units and provides the default local
// implementation of output reading and state locking.
//
// Each unit owns one state artifact, addressed by an account/environment-scoped bucket identifier plus the unit's
// relative path. A companion lock record guards concurrent mutation of that key; distributed locking services can
// replace the flock-based default.
package remotestate

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/runstack-io/runstack/internal/errors"
)

// DefaultStateName is the file name of a unit's state artifact within its state prefix.
const DefaultStateName = "terraform.tfstate"

// Config describes where unit state lives. It is decoded from the merged hierarchy configuration, so accounts
// and environments control their own buckets.
type Config struct {
	// Bucket is the base bucket name. The effective bucket identifier is scoped by account and environment.
	Bucket string `mapstructure:"state_bucket"`

	// Account and Environment scope the bucket identifier.
	Account     string `mapstructure:"account"`
	Environment string `mapstructure:"env"`

	// BaseDir is where the local store keeps state. Ignored by remote backends.
	BaseDir string `mapstructure:"state_dir"`
}

// ParseConfig decodes a state configuration from the merged hierarchy values.
func ParseConfig(values map[string]any) (*Config, error) {
	config := &Config{}

	if err := mapstructure.Decode(values, config); err != nil {
		return nil, errors.New(err)
	}

	if config.Bucket == "" {
		return nil, errors.Errorf("hierarchy configuration is missing state_bucket")
	}

	if config.Account == "" {
		return nil, errors.Errorf("hierarchy configuration is missing account")
	}

	return config, nil
}

// BucketID returns the account/environment-scoped bucket identifier.
func (c *Config) BucketID() string {
	parts := []string{c.Bucket, c.Account}
	if c.Environment != "" {
		parts = append(parts, c.Environment)
	}

	return strings.Join(parts, "-")
}

// StateKey returns the full key of a unit's state artifact: the scoped bucket identifier plus the unit's relative
// path.
func (c *Config) StateKey(unitPath string) string {
	return fmt.Sprintf("%s/%s/%s", c.BucketID(), unitPath, DefaultStateName)
}

// LockKey returns the key of the companion lock record guarding the unit's state.
func (c *Config) LockKey(unitPath string) string {
	return c.StateKey(unitPath) + ".lock"
}

// lockRetryDelay is how long LockUnit waits between attempts on a contended lock record.
const lockRetryDelay = 250 * time.Millisecond
