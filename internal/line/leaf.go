// Package line turns the tokens of a Vyper statement into a logical line.
//
// A [Line] owns an ordered sequence of [Leaf] values together with metadata derived while
// appending them: the bracket depth of every leaf, the opening bracket of every closing bracket,
// the delimiter priorities at depth 0, the comments attached to leaves and whether the line has a
// magic trailing comma. Lines are rendered and split by the layout package.
package line

import (
	"github.com/teleivo/vyper/token"
)

// Leaf is a token of a logical line.
type Leaf struct {
	Kind  token.Kind
	Value string
	// Prefix is the whitespace rendered before the leaf. It is ignored for the first leaf of a
	// line.
	Prefix string
	Pos    token.Position
	// ID identifies the leaf across the lines a logical line is split into. Leaves inserted while
	// splitting like trailing commas have an ID of zero.
	ID int
}

// IsInvisible reports whether the leaf is a parenthesis inserted by the formatter that is only
// rendered if the line is split at it.
func (l Leaf) IsInvisible() bool {
	return l.Kind&(token.LeftParen|token.RightParen) != 0 && l.Value == ""
}

// Visible returns a copy of an invisible parenthesis that is rendered.
func (l Leaf) Visible() Leaf {
	if !l.IsInvisible() {
		return l
	}
	if l.Kind == token.LeftParen {
		l.Value = "("
	} else {
		l.Value = ")"
	}
	return l
}

// String returns the leaf as it is rendered after another leaf.
func (l Leaf) String() string {
	return l.Prefix + l.Value
}

// Priority ranks delimiters. A line is split at the delimiters with the lowest priority present
// at bracket depth 0. A priority of zero means the leaf is no delimiter.
type Priority int

const (
	CommaPriority Priority = iota + 1
	TernaryPriority
	LogicPriority
	StringPriority
	ComparatorPriority
	BitOrPriority
	BitXorPriority
	BitAndPriority
	ShiftPriority
	ArithPriority
	TermPriority
	PowerPriority
	DotPriority
)

var mathPriorities = map[token.Kind]Priority{
	token.Pipe:        BitOrPriority,
	token.Caret:       BitXorPriority,
	token.Ampersand:   BitAndPriority,
	token.LeftShift:   ShiftPriority,
	token.RightShift:  ShiftPriority,
	token.Plus:        ArithPriority,
	token.Minus:       ArithPriority,
	token.Star:        TermPriority,
	token.Slash:       TermPriority,
	token.DoubleSlash: TermPriority,
	token.Percent:     TermPriority,
	token.DoubleStar:  PowerPriority,
}
