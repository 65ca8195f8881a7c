package vyper

import "github.com/teleivo/vyper/token"

// TreeFirst returns the first child tree matching want.
func TreeFirst(tree *Tree, want TreeKind) (*Tree, bool) {
	for _, child := range tree.Children {
		if tc, ok := child.(TreeChild); ok && tc.Kind&want != 0 {
			return tc.Tree, true
		}
	}
	return nil, false
}

// TokenFirst returns the first child token matching want.
func TokenFirst(tree *Tree, want token.Kind) (token.Token, bool) {
	for _, child := range tree.Children {
		if tc, ok := child.(TokenChild); ok && tc.Kind&want != 0 {
			return tc.Token, true
		}
	}
	return token.Token{}, false
}

// Tokens returns the child tokens of tree matching want in source order. Tokens of child trees are
// not included.
func Tokens(tree *Tree, want token.Kind) []token.Token {
	var tokens []token.Token
	for _, child := range tree.Children {
		if tc, ok := child.(TokenChild); ok && tc.Kind&want != 0 {
			tokens = append(tokens, tc.Token)
		}
	}
	return tokens
}
