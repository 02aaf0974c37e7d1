package filter

import (
	"unicode"
)

// Lexer tokenizes a filter query string.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

// NewLexer creates a new Lexer for the given input string.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()

	return l
}

// NextToken reads and returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.position

	switch l.ch {
	case '!':
		l.readChar()
		return NewToken(BANG, "!", start)
	case '|':
		l.readChar()
		return NewToken(PIPE, "|", start)
	case '=':
		l.readChar()
		return NewToken(EQUAL, "=", start)
	case '[':
		l.readChar()
		return NewToken(LBRACKET, "[", start)
	case ']':
		l.readChar()
		return NewToken(RBRACKET, "]", start)
	case 0:
		return NewToken(EOF, "", start)
	case '/':
		return l.readPath(start)
	case '.':
		// Disambiguate between "..." (closure operator) and "./" or "../" (paths).
		if l.peekChar() == '.' && l.peekCharAt(1) == '.' {
			l.readChar()
			l.readChar()
			l.readChar()

			return NewToken(ELLIPSIS, "...", start)
		}

		if l.peekChar() == '/' || (l.peekChar() == '.' && l.peekCharAt(1) == '/') {
			return l.readPath(start)
		}

		l.readChar()

		return NewToken(ILLEGAL, ".", start)
	default:
		if isIdentifierChar(l.ch) {
			return NewToken(IDENT, l.readIdentifier(), start)
		}

		ch := l.ch
		l.readChar()

		return NewToken(ILLEGAL, string(ch), start)
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}

	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	return l.peekCharAt(0)
}

func (l *Lexer) peekCharAt(offset int) byte {
	pos := l.readPosition + offset
	if pos >= len(l.input) {
		return 0
	}

	return l.input[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readPath consumes a path token. A path ends at whitespace, an operator character, or the start of an ellipsis;
// a single "." stays part of the path so "./apps/v1.2" lexes as one token.
func (l *Lexer) readPath(start int) Token {
	for l.ch != 0 && !isOperatorChar(l.ch) && !unicode.IsSpace(rune(l.ch)) {
		if l.ch == '.' && l.peekChar() == '.' && l.peekCharAt(1) == '.' {
			break
		}

		l.readChar()
	}

	return NewToken(PATH, l.input[start:l.position], start)
}

// readIdentifier consumes a name or attribute token. Glob metacharacters stay part of the identifier so patterns
// like "app-*" work as name filters.
func (l *Lexer) readIdentifier() string {
	start := l.position

	for isIdentifierChar(l.ch) {
		l.readChar()
	}

	return l.input[start:l.position]
}

func isIdentifierChar(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	case ch == '-' || ch == '_' || ch == '*' || ch == '?':
		return true
	}

	return false
}

func isOperatorChar(ch byte) bool {
	switch ch {
	case '!', '|', '=', '[', ']':
		return true
	}

	return false
}
