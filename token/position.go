package token

import (
	"strconv"
)

// Position describes a position in Vyper source code.
type Position struct {
	Line   int // Line is the line number starting at 1. A line of zero is not valid.
	Column int // Column is the horizontal position in terms of runes starting at 1. A column of zero is not valid.
}

// IsValid reports whether the position is valid.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// String returns the position in line:column format.
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Before reports whether the position p is before o.
func (p Position) Before(o Position) bool {
	if p.Line < o.Line {
		return true
	} else if p.Line == o.Line && p.Column < o.Column {
		return true
	}
	return false
}

// After reports whether the position p is after o.
func (p Position) After(o Position) bool {
	if p.Line > o.Line {
		return true
	} else if p.Line == o.Line && p.Column > o.Column {
		return true
	}
	return false
}
