package resolver

import (
	"fmt"

	"github.com/runstack-io/runstack/internal/component"
)

// UnresolvedDependencyError is returned when a unit needs the outputs of a dependency that has not been applied
// yet and mock outputs are not permitted for the requested action.
type UnresolvedDependencyError struct {
	UnitPath       string
	DependencyPath string
	Action         component.Action
}

func (err UnresolvedDependencyError) Error() string {
	return fmt.Sprintf(
		"unit %s depends on outputs of %s, which has not been applied yet, and mock outputs are not allowed for %s",
		err.UnitPath, err.DependencyPath, err.Action,
	)
}
