package filter

import (
	"github.com/runstack-io/runstack/internal/errors"
)

// Parser parses a filter query string into an AST via recursive descent.
type Parser struct {
	lexer     *Lexer
	query     string
	errs      []error
	curToken  Token
	peekToken Token
}

// Operator precedence levels.
const (
	_ int = iota
	LOWEST
	INTERSECTION // |
	PREFIX       // !
)

var precedences = map[TokenType]int{
	PIPE: INTERSECTION,
}

// NewParser creates a new Parser for the given query.
func NewParser(query string) *Parser {
	p := &Parser{
		lexer: NewLexer(query),
		query: query,
	}

	// Read two tokens to initialize curToken and peekToken.
	p.nextToken()
	p.nextToken()

	return p
}

// ParseExpression parses and returns the expression of the whole input.
func (p *Parser) ParseExpression() (Expression, error) {
	expr := p.parseExpression(LOWEST)

	if expr == nil {
		if len(p.errs) > 0 {
			return nil, p.errs[0]
		}

		return nil, p.syntaxError("failed to parse expression")
	}

	if p.curToken.Type != EOF {
		return nil, p.syntaxError("unexpected token after expression: " + p.curToken.Literal)
	}

	return expr, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

func (p *Parser) parseExpression(precedence int) Expression {
	// A leading ellipsis selects dependents of the target (...foo).
	includeDependents := false
	if p.curToken.Type == ELLIPSIS {
		includeDependents = true

		p.nextToken()
	}

	var leftExpr Expression

	switch p.curToken.Type {
	case BANG:
		leftExpr = p.parsePrefixExpression()
	case PATH:
		leftExpr = NewPathFilter(p.curToken.Literal)
		p.nextToken()
	case LBRACKET:
		leftExpr = p.parseGitFilter()
	case IDENT:
		if p.peekToken.Type == EQUAL {
			leftExpr = p.parseAttributeFilter()
			break
		}

		leftExpr = &AttributeFilter{Key: AttributeName, Value: p.curToken.Literal}
		p.nextToken()
	case EOF:
		p.addError("unexpected end of input")
		return nil
	default:
		p.addError("unexpected token: " + p.curToken.Literal)
		return nil
	}

	if leftExpr == nil {
		return nil
	}

	// A trailing ellipsis selects dependencies of the target (foo...).
	includeDependencies := false
	if p.curToken.Type == ELLIPSIS {
		includeDependencies = true

		p.nextToken()
	}

	if includeDependents || includeDependencies {
		leftExpr = &GraphExpression{
			Target:              leftExpr,
			IncludeDependents:   includeDependents,
			IncludeDependencies: includeDependencies,
		}
	}

	for p.curToken.Type != EOF && precedence < p.curPrecedence() {
		if p.curToken.Type != PIPE {
			return leftExpr
		}

		leftExpr = p.parseInfixExpression(leftExpr)
		if leftExpr == nil {
			return nil
		}
	}

	return leftExpr
}

func (p *Parser) parsePrefixExpression() Expression {
	expr := &PrefixExpression{Operator: p.curToken.Literal}

	p.nextToken()

	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		p.addError("expected expression after " + expr.Operator)
		return nil
	}

	return expr
}

func (p *Parser) parseInfixExpression(left Expression) Expression {
	expr := &InfixExpression{
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()

	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		p.addError("expected expression after " + expr.Operator)
		return nil
	}

	return expr
}

func (p *Parser) parseAttributeFilter() Expression {
	key := p.curToken.Literal

	// Consume key and '='.
	p.nextToken()
	p.nextToken()

	if p.curToken.Type != IDENT && p.curToken.Type != PATH {
		p.addError("expected identifier or path after '='")
		return nil
	}

	value := p.curToken.Literal
	p.nextToken()

	return &AttributeFilter{Key: key, Value: value}
}

func (p *Parser) parseGitFilter() Expression {
	// Consume '['.
	p.nextToken()

	if p.curToken.Type != IDENT && p.curToken.Type != PATH {
		p.addError("expected a version-control reference inside [ ]")
		return nil
	}

	ref := p.curToken.Literal
	p.nextToken()

	if p.curToken.Type != RBRACKET {
		p.addError("expected ']' to close the changed-since filter")
		return nil
	}

	p.nextToken()

	return &GitFilter{Ref: ref}
}

func (p *Parser) curPrecedence() int {
	if precedence, ok := precedences[p.curToken.Type]; ok {
		return precedence
	}

	return LOWEST
}

func (p *Parser) addError(message string) {
	p.errs = append(p.errs, p.syntaxError(message))
}

func (p *Parser) syntaxError(message string) error {
	return errors.New(InvalidFilterSyntaxError{
		Query:    p.query,
		Message:  message,
		Position: p.curToken.Position,
	})
}
