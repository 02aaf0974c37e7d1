package remotestate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/runstack-io/runstack/internal/component"
	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/pkg/log"
	"github.com/runstack-io/runstack/util"
)

// LocalStore keeps unit state on the local filesystem, laid out with the same keys a remote bucket would use.
// It is the default resolver.OutputReader and lock provider for runs without a remote backend.
type LocalStore struct {
	config *Config
	logger log.Logger
}

// NewLocalStore returns a LocalStore rooted at the config's BaseDir.
func NewLocalStore(config *Config, logger log.Logger) *LocalStore {
	return &LocalStore{
		config: config,
		logger: logger,
	}
}

// stateFile is the subset of the state artifact's JSON we care about.
type stateFile struct {
	Outputs map[string]stateOutput `json:"outputs"`
}

type stateOutput struct {
	Value json.RawMessage `json:"value"`
}

func (s *LocalStore) statePath(unit *component.Unit) string {
	return filepath.Join(s.config.BaseDir, filepath.FromSlash(s.config.StateKey(unit.Path)))
}

func (s *LocalStore) lockPath(unit *component.Unit) string {
	return filepath.Join(s.config.BaseDir, filepath.FromSlash(s.config.LockKey(unit.Path)))
}

// IsApplied returns true if the unit has a persisted state artifact from a completed apply.
func (s *LocalStore) IsApplied(ctx context.Context, unit *component.Unit) (bool, error) {
	return util.FileExists(s.statePath(unit)), nil
}

// ReadOutputs reads the unit's outputs from its state artifact as a single cty object value.
func (s *LocalStore) ReadOutputs(ctx context.Context, unit *component.Unit) (cty.Value, error) {
	content, err := os.ReadFile(s.statePath(unit))
	if err != nil {
		return cty.NilVal, errors.New(err)
	}

	state := &stateFile{}
	if err := json.Unmarshal(content, state); err != nil {
		return cty.NilVal, errors.New(err)
	}

	outputs := make(map[string]cty.Value, len(state.Outputs))

	for name, output := range state.Outputs {
		impliedType, err := ctyjson.ImpliedType(output.Value)
		if err != nil {
			return cty.NilVal, errors.New(err)
		}

		value, err := ctyjson.Unmarshal(output.Value, impliedType)
		if err != nil {
			return cty.NilVal, errors.New(err)
		}

		outputs[name] = value
	}

	if len(outputs) == 0 {
		return cty.EmptyObjectVal, nil
	}

	return cty.ObjectVal(outputs), nil
}

// WriteOutputs persists the given outputs as the unit's state artifact. Used by tests and by runs that manage
// state locally.
func (s *LocalStore) WriteOutputs(ctx context.Context, unit *component.Unit, outputs map[string]cty.Value) error {
	state := &stateFile{Outputs: map[string]stateOutput{}}

	for name, value := range outputs {
		raw, err := ctyjson.Marshal(value, value.Type())
		if err != nil {
			return errors.New(err)
		}

		state.Outputs[name] = stateOutput{Value: raw}
	}

	content, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.New(err)
	}

	statePath := s.statePath(unit)

	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return errors.New(err)
	}

	return errors.WithStackTrace(os.WriteFile(statePath, content, 0o644))
}

// LockUnit takes the unit's lock record, blocking concurrent mutation of the same state key. The returned
// function releases the lock.
func (s *LocalStore) LockUnit(ctx context.Context, unit *component.Unit) (func() error, error) {
	lockPath := s.lockPath(unit)

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, errors.New(err)
	}

	lock := flock.New(lockPath)

	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, errors.New(err)
	}

	if !locked {
		return nil, errors.Errorf("could not acquire lock on %s", lockPath)
	}

	s.logger.Debugf("Acquired lock on %s", lockPath)

	return lock.Unlock, nil
}
