package filter

// TokenType identifies the kind of a lexed token.
type TokenType string

const (
	IDENT    TokenType = "IDENT"    // unit names, attribute keys and values
	PATH     TokenType = "PATH"     // ./apps/*, ../vpc, /absolute
	BANG     TokenType = "BANG"     // !
	PIPE     TokenType = "PIPE"     // |
	EQUAL    TokenType = "EQUAL"    // =
	ELLIPSIS TokenType = "ELLIPSIS" // ...
	LBRACKET TokenType = "LBRACKET" // [
	RBRACKET TokenType = "RBRACKET" // ]
	EOF      TokenType = "EOF"
	ILLEGAL  TokenType = "ILLEGAL"
)

// Token is a lexed token with its position in the input, used for error reporting.
type Token struct {
	Type     TokenType
	Literal  string
	Position int
}

// NewToken creates a new token.
func NewToken(tokenType TokenType, literal string, position int) Token {
	return Token{
		Type:     tokenType,
		Literal:  literal,
		Position: position,
	}
}
