package token_test

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/vyper/token"
)

func TestLookup(t *testing.T) {
	tests := map[string]struct {
		in   string
		want token.Kind
	}{
		"Keyword":                {in: "def", want: token.Def},
		"LongestKeyword":         {in: "continue", want: token.Continue},
		"KeywordIsCaseSensitive": {in: "Def", want: token.Name},
		"SoftKeyword":            {in: "event", want: token.Name},
		"Log":                    {in: "log", want: token.Name},
		"Constant":               {in: "True", want: token.Name},
		"LongName":               {in: "totalSupply", want: token.Name},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.EqualValues(t, token.Lookup(test.in), test.want)
		})
	}
}

func TestKindString(t *testing.T) {
	tests := map[string]struct {
		in   token.Kind
		want string
	}{
		"Single":  {in: token.LeftParen, want: "("},
		"Keyword": {in: token.Return, want: "return"},
		"Two":     {in: token.LeftParen | token.LeftBracket, want: "( or ["},
		"Three":   {in: token.Opening, want: "(, [ or {"},
		"Name":    {in: token.Name, want: "name"},
		"NoKind":  {in: 0, want: "none"},
		"Newline": {in: token.Newline, want: "NEWLINE"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.EqualValues(t, test.in.String(), test.want)
		})
	}
}

func TestTokenString(t *testing.T) {
	tok := token.Token{Kind: token.Name, Literal: "owner"}
	assert.EqualValues(t, tok.String(), "owner")

	tok = token.Token{Kind: token.Comma, Literal: ","}
	assert.EqualValues(t, tok.String(), ",")

	tok = token.Token{Kind: token.AugAssign, Literal: "+="}
	assert.EqualValues(t, tok.String(), "+=")
}

func TestIsDeclaration(t *testing.T) {
	for _, name := range []string{"event", "struct", "interface", "enum", "flag"} {
		assert.Truef(t, token.IsDeclaration(name), "IsDeclaration(%q)", name)
	}
	for _, name := range []string{"def", "log", "implements", "self"} {
		assert.Falsef(t, token.IsDeclaration(name), "IsDeclaration(%q)", name)
	}
}
