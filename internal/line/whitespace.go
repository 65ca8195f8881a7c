package line

import (
	"github.com/teleivo/vyper/token"
)

const (
	noSpace = ""
	space   = " "
)

// whitespace returns the prefix of a leaf about to be appended to l. It must be called before
// the leaf is marked so the bracket tracker still reflects the brackets around it.
func whitespace(l *Line, leaf Leaf) string {
	n := len(l.Leaves)
	if n == 0 {
		return noSpace
	}
	prev := l.Leaves[n-1]

	switch {
	case leaf.Kind&(token.Closing|token.Comma|token.Colon|token.Semicolon|token.Comment) != 0:
		return noSpace
	case prev.Kind&token.Opening != 0:
		return noSpace
	case leaf.Kind == token.Dot:
		if prev.Kind&(token.From|token.Import) != 0 {
			return space
		}
		return noSpace
	case prev.Kind == token.Dot:
		if leaf.Kind == token.Import {
			return space
		}
		return noSpace
	case prev.Kind == token.At && n == 1:
		return noSpace
	case leaf.Kind&(token.LeftParen|token.LeftBracket) != 0 && !leaf.IsInvisible():
		if prev.Kind&(token.Name|token.Closing) != 0 && !prev.IsInvisible() {
			return noSpace
		}
	case leaf.Kind == token.Assign && isKeywordArgument(l, n):
		return noSpace
	case prev.Kind == token.Assign && isKeywordArgument(l, n-1):
		return noSpace
	case prev.Kind&token.Unary != 0 && isUnary(l.Leaves, n-1):
		return noSpace
	}
	return space
}

// isKeywordArgument reports whether the '=' at index i of l, which may be the index of the leaf
// about to be appended, assigns a keyword argument in a call.
func isKeywordArgument(l *Line, i int) bool {
	if l.brackets == nil || i < 2 {
		return false
	}
	innermost := l.brackets.Innermost()
	if innermost < 0 || l.Leaves[innermost].Kind != token.LeftParen || l.Leaves[innermost].IsInvisible() {
		return false
	}
	return l.Leaves[i-1].Kind == token.Name && l.Leaves[i-2].Kind&(token.LeftParen|token.Comma) != 0
}
