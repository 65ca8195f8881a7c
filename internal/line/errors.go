package line

import (
	"fmt"

	"github.com/teleivo/vyper/token"
)

// UnsupportedError is returned for valid Vyper that the formatter cannot format without risking
// to change its meaning.
type UnsupportedError struct {
	Pos       token.Position
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported %s", e.Pos, e.Construct)
}

// MismatchError is returned when a closing bracket does not match the innermost opening bracket.
// Parsed input has balanced brackets so a mismatch is a bug in the formatter.
type MismatchError struct {
	Pos     token.Position
	Opening token.Kind
	Closing token.Kind
}

func (e *MismatchError) Error() string {
	if e.Opening == 0 {
		return fmt.Sprintf("%s: closing bracket %s has no opening bracket", e.Pos, e.Closing)
	}
	return fmt.Sprintf("%s: closing bracket %s does not match opening bracket %s", e.Pos, e.Closing, e.Opening)
}
