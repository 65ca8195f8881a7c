package line

import (
	"github.com/teleivo/vyper/token"
)

// BracketTracker keeps track of the bracket depth while leaves are appended to a line. It records
// the depth of every leaf, pairs closing with opening brackets and collects the delimiters found
// at depth 0.
type BracketTracker struct {
	depth int
	// open holds the indices of the unclosed opening brackets, innermost last.
	open []int
	// forDepths holds the depths at which the target of a for loop started.
	forDepths []int
	// delimiters maps leaf indices to the priority of splitting after them.
	delimiters map[int]Priority
	// invisible holds the indices of invisible parentheses.
	invisible []int
}

// NewBracketTracker returns an empty tracker.
func NewBracketTracker() *BracketTracker {
	return &BracketTracker{delimiters: make(map[int]Priority)}
}

// Depth returns the current bracket depth.
func (bt *BracketTracker) Depth() int {
	return bt.depth
}

// Innermost returns the index of the innermost unclosed opening bracket or -1.
func (bt *BracketTracker) Innermost() int {
	if len(bt.open) == 0 {
		return -1
	}
	return bt.open[len(bt.open)-1]
}

// Mark records the depth of the leaf at index i of l and its delimiter priority. The leaf must be
// the last leaf of l. A closing bracket is paired with the innermost opening bracket.
//
// A split before a delimiter like an operator is recorded as a split after the leaf before it so
// priorities are always attached to the leaf a line would end with.
func (bt *BracketTracker) Mark(l *Line, i int) error {
	leaf := l.Leaves[i]
	if leaf.Kind&token.Closing != 0 {
		if len(bt.open) == 0 {
			return &MismatchError{Pos: leaf.Pos, Closing: leaf.Kind}
		}
		opening := bt.open[len(bt.open)-1]
		if closingFor(l.Leaves[opening].Kind) != leaf.Kind {
			return &MismatchError{Pos: leaf.Pos, Opening: l.Leaves[opening].Kind, Closing: leaf.Kind}
		}
		bt.open = bt.open[:len(bt.open)-1]
		bt.depth--
		l.openings[i] = opening
	}

	forIn := false
	if leaf.Kind == token.In && len(bt.forDepths) > 0 && bt.forDepths[len(bt.forDepths)-1] == bt.depth {
		bt.depth--
		bt.forDepths = bt.forDepths[:len(bt.forDepths)-1]
		forIn = true
	}

	l.depths[i] = bt.depth
	if bt.depth == 0 && !forIn {
		var p Priority
		at := -1
		if i > 0 {
			p, at = splitBeforePriority(l, i)
		}
		if p > 0 {
			bt.delimiters[at] = p
		} else if p := splitAfterPriority(leaf); p > 0 {
			bt.delimiters[i] = p
		}
	}

	if leaf.Kind&token.Opening != 0 {
		bt.open = append(bt.open, i)
		bt.depth++
	}
	if leaf.IsInvisible() {
		bt.invisible = append(bt.invisible, i)
	}
	if leaf.Kind == token.For {
		bt.depth++
		bt.forDepths = append(bt.forDepths, bt.depth)
	}
	return nil
}

// Delimiter returns the priority of splitting after the leaf at index i or zero.
func (bt *BracketTracker) Delimiter(i int) Priority {
	return bt.delimiters[i]
}

// MaxPriority returns the priority governing how a line is split. This is the lowest priority
// of all delimiters not in exclude. It returns zero if there are no delimiters.
func (bt *BracketTracker) MaxPriority(exclude ...int) Priority {
	var governing Priority
	for i, p := range bt.delimiters {
		if contains(exclude, i) {
			continue
		}
		if governing == 0 || p < governing {
			governing = p
		}
	}
	return governing
}

// DelimiterCount returns the number of delimiters with the given priority.
func (bt *BracketTracker) DelimiterCount(p Priority) int {
	var n int
	for _, dp := range bt.delimiters {
		if dp == p {
			n++
		}
	}
	return n
}

// AnyOpenBrackets reports whether there are unclosed brackets.
func (bt *BracketTracker) AnyOpenBrackets() bool {
	return len(bt.open) > 0
}

// Invisible returns the indices of invisible parentheses.
func (bt *BracketTracker) Invisible() []int {
	return bt.invisible
}

func (bt *BracketTracker) clone() *BracketTracker {
	c := &BracketTracker{
		depth:      bt.depth,
		open:       append([]int(nil), bt.open...),
		forDepths:  append([]int(nil), bt.forDepths...),
		delimiters: make(map[int]Priority, len(bt.delimiters)),
		invisible:  append([]int(nil), bt.invisible...),
	}
	for i, p := range bt.delimiters {
		c.delimiters[i] = p
	}
	return c
}

// splitBeforePriority returns the priority of splitting before the leaf at index i together with
// the index of the leaf the priority is recorded on. The index is usually i-1 except for "not in"
// which is split before the "not".
func splitBeforePriority(l *Line, i int) (Priority, int) {
	leaf := l.Leaves[i]
	prev := l.Leaves[i-1]

	switch {
	case leaf.Kind == token.Dot:
		if prev.Kind&token.Closing != 0 && !prev.IsInvisible() && !l.IsImport() {
			return DotPriority, i - 1
		}
		return 0, -1
	case leaf.Kind&token.Arithmetic != 0:
		if isUnary(l.Leaves, i) {
			return 0, -1
		}
		return mathPriorities[leaf.Kind], i - 1
	case leaf.Kind&token.Comparators != 0:
		return ComparatorPriority, i - 1
	case leaf.Kind == token.In:
		if prev.Kind == token.Not {
			// "not in" is split before the "not"
			if i < 2 {
				return 0, -1
			}
			return ComparatorPriority, i - 2
		}
		return ComparatorPriority, i - 1
	case leaf.Kind == token.String && prev.Kind == token.String:
		return StringPriority, i - 1
	case leaf.Kind&(token.If|token.Else) != 0:
		return TernaryPriority, i - 1
	case leaf.Kind&(token.And|token.Or) != 0:
		return LogicPriority, i - 1
	}
	return 0, -1
}

func splitAfterPriority(leaf Leaf) Priority {
	if leaf.Kind == token.Comma {
		return CommaPriority
	}
	return 0
}

// isUnary reports whether the operator at index i is used as a prefix operator.
func isUnary(leaves []Leaf, i int) bool {
	leaf := leaves[i]
	if leaf.Kind == token.Tilde {
		return true
	}
	if leaf.Kind&token.Unary == 0 {
		return false
	}
	j := i - 1
	for j >= 0 && leaves[j].Kind == token.Comment {
		j--
	}
	if j < 0 {
		return true
	}
	return leaves[j].Kind&(token.Operators|token.Keywords|token.Opening|token.Comma|token.Colon|token.At) != 0
}

func closingFor(opening token.Kind) token.Kind {
	switch opening {
	case token.LeftParen:
		return token.RightParen
	case token.LeftBracket:
		return token.RightBracket
	case token.LeftBrace:
		return token.RightBrace
	}
	return 0
}

func contains(s []int, v int) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
