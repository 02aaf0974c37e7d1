package component

import (
	"github.com/zclconf/go-cty/cty"
)

// Stack is a named composition of units plus the computed local values shared between them. A stack owns its
// units exclusively.
type Stack struct {
	// Name is the stack's name, derived from its directory by default.
	Name string

	// Dir is the directory containing the stack definition file.
	Dir string

	// Locals are the stack's computed local values, available to unit values expressions.
	Locals map[string]cty.Value

	// Units are the deployment targets declared by this stack.
	Units Units
}

// Reference is an explicit symbolic reference to another unit's outputs, produced when a raw string value in a
// unit's values mapping is recognized as a sibling unit's relative path. Keeping references as their own type
// removes the ambiguity of encoding "relative path" and "substitution request" in one string.
type Reference struct {
	// TargetPath is the provider unit's relative path, exactly as written in the values mapping.
	TargetPath string

	// Key optionally names a single output to substitute instead of the whole outputs mapping.
	Key string
}
