package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runstack-io/runstack/internal/filter"
)

func TestLexerTokenizesQueries(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected []filter.Token
	}{
		{
			input: "./apps/api",
			expected: []filter.Token{
				{Type: filter.PATH, Literal: "./apps/api", Position: 0},
			},
		},
		{
			input: "api...",
			expected: []filter.Token{
				{Type: filter.IDENT, Literal: "api", Position: 0},
				{Type: filter.ELLIPSIS, Literal: "...", Position: 3},
			},
		},
		{
			input: "...db",
			expected: []filter.Token{
				{Type: filter.ELLIPSIS, Literal: "...", Position: 0},
				{Type: filter.IDENT, Literal: "db", Position: 3},
			},
		},
		{
			input: "name=app-*",
			expected: []filter.Token{
				{Type: filter.IDENT, Literal: "name", Position: 0},
				{Type: filter.EQUAL, Literal: "=", Position: 4},
				{Type: filter.IDENT, Literal: "app-*", Position: 5},
			},
		},
		{
			input: "!./legacy | [main]",
			expected: []filter.Token{
				{Type: filter.BANG, Literal: "!", Position: 0},
				{Type: filter.PATH, Literal: "./legacy", Position: 1},
				{Type: filter.PIPE, Literal: "|", Position: 10},
				{Type: filter.LBRACKET, Literal: "[", Position: 12},
				{Type: filter.IDENT, Literal: "main", Position: 13},
				{Type: filter.RBRACKET, Literal: "]", Position: 17},
			},
		},
		{
			// A version-like dot inside a path stays part of the path; a trailing ellipsis does not.
			input: "../api/v1.2...",
			expected: []filter.Token{
				{Type: filter.PATH, Literal: "../api/v1.2", Position: 0},
				{Type: filter.ELLIPSIS, Literal: "...", Position: 11},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			lexer := filter.NewLexer(tc.input)

			var tokens []filter.Token

			for {
				token := lexer.NextToken()
				if token.Type == filter.EOF {
					break
				}

				tokens = append(tokens, token)
			}

			assert.Equal(t, tc.expected, tokens)
		})
	}
}
