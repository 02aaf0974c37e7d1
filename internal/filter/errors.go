package filter

import "fmt"

// InvalidFilterSyntaxError is returned for malformed filter expressions. Structural, whole-run fatal: it is
// reported before any scheduling happens.
type InvalidFilterSyntaxError struct {
	Query    string
	Message  string
	Position int
}

func (err InvalidFilterSyntaxError) Error() string {
	return fmt.Sprintf("invalid filter %q at position %d: %s", err.Query, err.Position, err.Message)
}

// EvaluationError is returned when a syntactically valid filter cannot be evaluated, e.g. an unknown attribute
// key or a git filter without a change detector.
type EvaluationError struct {
	Message string
}

func (err EvaluationError) Error() string {
	return "filter evaluation: " + err.Message
}
