package config

import (
	"fmt"
)

// ConfigNotFoundError is returned when a required hierarchy fragment is absent from the directory walk.
type ConfigNotFoundError struct {
	Fragment string
	StartDir string
}

func (err ConfigNotFoundError) Error() string {
	return fmt.Sprintf("required configuration fragment %s not found walking up from %s", err.Fragment, err.StartDir)
}

// DuplicateUnitNameError is returned when two units in the same stack share a name.
type DuplicateUnitNameError struct {
	Name string
}

func (err DuplicateUnitNameError) Error() string {
	return fmt.Sprintf("duplicate unit name found: '%s'", err.Name)
}

// DuplicateUnitPathError is returned when two units in the same stack share an output path.
type DuplicateUnitPathError struct {
	Path string
}

func (err DuplicateUnitPathError) Error() string {
	return fmt.Sprintf("duplicate unit path found: '%s'", err.Path)
}

// InvalidSourceError is returned when a unit's source reference is malformed, e.g. when the version selector
// precedes the sub-path separator.
type InvalidSourceError struct {
	Source string
	Reason string
}

func (err InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid source reference %q: %s", err.Source, err.Reason)
}

// MaxIterError is returned when locals evaluation does not converge, which is most likely an infinite loop bug.
type MaxIterError struct{}

func (err MaxIterError) Error() string {
	return "maximum iterations reached while evaluating locals; this is almost certainly a bug, please open an issue"
}
