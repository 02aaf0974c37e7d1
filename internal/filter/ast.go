package filter

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Expression is the interface all AST nodes implement.
type Expression interface {
	// expressionNode is a marker method to distinguish expression nodes.
	expressionNode()
	// String returns a string representation of the expression for debugging.
	String() string
}

// PathFilter matches units by their stack-relative path, with glob support (e.g. "./apps/*" or "../vpc").
type PathFilter struct {
	compiledGlob glob.Glob
	compileErr   error
	Value        string
	compileOnce  sync.Once
}

// NewPathFilter creates a PathFilter with lazy glob compilation.
func NewPathFilter(value string) *PathFilter {
	return &PathFilter{Value: value}
}

// CompileGlob returns the compiled glob pattern, compiling it on first call. Uses sync.Once for thread-safe lazy
// initialization.
func (p *PathFilter) CompileGlob() (glob.Glob, error) {
	p.compileOnce.Do(func() {
		pattern := strings.TrimPrefix(p.Value, "./")
		p.compiledGlob, p.compileErr = glob.Compile(pattern, '/')
	})

	return p.compiledGlob, p.compileErr
}

func (p *PathFilter) expressionNode() {}
func (p *PathFilter) String() string  { return p.Value }

// AttributeFilter matches units by attribute, e.g. "name=my-app". A bare identifier is shorthand for a name
// filter.
type AttributeFilter struct {
	compiledGlob glob.Glob
	compileErr   error
	Key          string
	Value        string
	compileOnce  sync.Once
}

// CompileGlob returns the compiled glob pattern for the attribute value.
func (a *AttributeFilter) CompileGlob() (glob.Glob, error) {
	a.compileOnce.Do(func() {
		a.compiledGlob, a.compileErr = glob.Compile(a.Value, '/')
	})

	return a.compiledGlob, a.compileErr
}

func (a *AttributeFilter) expressionNode() {}
func (a *AttributeFilter) String() string  { return a.Key + "=" + a.Value }

// PrefixExpression is a prefix operator expression, e.g. "!name=foo".
type PrefixExpression struct {
	Right    Expression
	Operator string
}

func (p *PrefixExpression) expressionNode() {}
func (p *PrefixExpression) String() string  { return p.Operator + p.Right.String() }

// InfixExpression is an infix operator expression, e.g. "./apps/* | name=bar".
type InfixExpression struct {
	Left     Expression
	Right    Expression
	Operator string
}

func (i *InfixExpression) expressionNode() {}
func (i *InfixExpression) String() string {
	return i.Left.String() + " " + i.Operator + " " + i.Right.String()
}

// GraphExpression widens a target expression along the DAG: a postfix ellipsis ("api...") pulls in all transitive
// dependencies of the matched units, a prefix ellipsis ("...db") all transitive dependents.
type GraphExpression struct {
	Target              Expression
	IncludeDependents   bool
	IncludeDependencies bool
}

func (g *GraphExpression) expressionNode() {}
func (g *GraphExpression) String() string {
	out := g.Target.String()

	if g.IncludeDependents {
		out = "..." + out
	}

	if g.IncludeDependencies {
		out += "..."
	}

	return out
}

// GitFilter selects units that changed since the given version-control reference, e.g. "[main]". Evaluation
// delegates to the run's ChangeDetector.
type GitFilter struct {
	Ref string
}

func (g *GitFilter) expressionNode() {}
func (g *GitFilter) String() string  { return "[" + g.Ref + "]" }
