// Package token defines constants representing the lexical tokens of the Vyper language together
// with operations like printing, detecting keywords or classifying operators.
package token

import (
	"fmt"
	"strings"
)

// Kind represents the kinds of lexical tokens of the Vyper language. Kinds are bit flags so a set
// of kinds can be expressed as Kind values combined using '|' and tested using '&'.
type Kind uint64

const (
	// ERROR is a token produced for invalid input. The reason is found in [Token.Error].
	ERROR Kind = 1 << iota
	// EOF is not part of the Vyper language and is used to indicate the end of the file or stream.
	// No language token follows the EOF token.
	EOF

	Newline // end of a logical line
	Indent  // increase of indentation
	Dedent  // decrease of indentation
	Comment // comment turned into a leaf of its own, never produced by the scanner

	Name   // like owner, uint256, self, True
	Number // like 1, 0xff, 1_000, 1.5e3
	String // like "abc", b"\x01", x"01", """doc"""

	LeftParen    // (
	RightParen   // )
	LeftBracket  // [
	RightBracket // ]
	LeftBrace    // {
	RightBrace   // }

	Comma     // ,
	Dot       // .
	Colon     // :
	Semicolon // ;
	Arrow     // ->
	At        // @
	Assign    // =
	AugAssign // like +=, -=, **=
	Ellipsis  // ...

	Plus         // +
	Minus        // -
	Star         // *
	Slash        // /
	DoubleSlash  // //
	Percent      // %
	DoubleStar   // **
	LeftShift    // <<
	RightShift   // >>
	Ampersand    // &
	Pipe         // |
	Caret        // ^
	Tilde        // ~
	Less         // <
	Greater      // >
	Equal        // ==
	NotEqual     // !=
	LessEqual    // <=
	GreaterEqual // >=

	// Keywords
	Def      // def
	Import   // import
	From     // from
	As       // as
	If       // if
	Elif     // elif
	Else     // else
	For      // for
	In       // in
	Not      // not
	And      // and
	Or       // or
	Return   // return
	Pass     // pass
	Break    // break
	Continue // continue
	Raise    // raise
	Assert   // assert
)

const (
	// Opening are the kinds of opening brackets.
	Opening = LeftParen | LeftBracket | LeftBrace
	// Closing are the kinds of closing brackets.
	Closing = RightParen | RightBracket | RightBrace
	// Brackets are the kinds of all brackets.
	Brackets = Opening | Closing
	// Comparators are the kinds of comparison operators. The keywords in and not are only
	// comparators in the context of a membership test.
	Comparators = Less | Greater | Equal | NotEqual | LessEqual | GreaterEqual
	// Arithmetic are the kinds of binary or unary arithmetic and bitwise operators.
	Arithmetic = Plus | Minus | Star | Slash | DoubleSlash | Percent | DoubleStar | LeftShift |
		RightShift | Ampersand | Pipe | Caret | Tilde
	// Unary are the kinds of operators that can be used as prefix operators.
	Unary = Plus | Minus | Tilde
	// Operators are the kinds of all operators.
	Operators = Arithmetic | Comparators | Arrow | Assign | AugAssign
	// Keywords are the kinds of all reserved words.
	Keywords = Def | Import | From | As | If | Elif | Else | For | In | Not | And | Or | Return |
		Pass | Break | Continue | Raise | Assert
	// FlowControl are the kinds of keywords that leave a block.
	FlowControl = Return | Break | Continue | Raise
)

var kindStrings = map[Kind]string{
	ERROR:   "ERROR",
	EOF:     "EOF",
	Newline: "NEWLINE",
	Indent:  "INDENT",
	Dedent:  "DEDENT",
	Comment: "comment",
	Name:    "name",
	Number:  "number",
	String:  "string",

	LeftParen:    "(",
	RightParen:   ")",
	LeftBracket:  "[",
	RightBracket: "]",
	LeftBrace:    "{",
	RightBrace:   "}",

	Comma:     ",",
	Dot:       ".",
	Colon:     ":",
	Semicolon: ";",
	Arrow:     "->",
	At:        "@",
	Assign:    "=",
	AugAssign: "augmented assignment",
	Ellipsis:  "...",

	Plus:         "+",
	Minus:        "-",
	Star:         "*",
	Slash:        "/",
	DoubleSlash:  "//",
	Percent:      "%",
	DoubleStar:   "**",
	LeftShift:    "<<",
	RightShift:   ">>",
	Ampersand:    "&",
	Pipe:         "|",
	Caret:        "^",
	Tilde:        "~",
	Less:         "<",
	Greater:      ">",
	Equal:        "==",
	NotEqual:     "!=",
	LessEqual:    "<=",
	GreaterEqual: ">=",

	Def:      "def",
	Import:   "import",
	From:     "from",
	As:       "as",
	If:       "if",
	Elif:     "elif",
	Else:     "else",
	For:      "for",
	In:       "in",
	Not:      "not",
	And:      "and",
	Or:       "or",
	Return:   "return",
	Pass:     "pass",
	Break:    "break",
	Continue: "continue",
	Raise:    "raise",
	Assert:   "assert",
}

// String returns the string representation of a single kind. Kinds combined using '|' are
// rendered as a list like "( or [".
func (k Kind) String() string {
	if s, ok := kindStrings[k]; ok {
		return s
	}
	if k == 0 {
		return "none"
	}

	var sb strings.Builder
	for remaining := k; remaining != 0; {
		bit := remaining & -remaining
		remaining &^= bit
		s, ok := kindStrings[bit]
		if !ok {
			panic(fmt.Errorf("Kind Stringer missing case for %d", uint64(bit)))
		}
		if sb.Len() > 0 {
			if remaining == 0 {
				sb.WriteString(" or ")
			} else {
				sb.WriteString(", ")
			}
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// Token represents a token of the Vyper language.
//
// Prefix holds everything the scanner skipped before the token: spaces, tabs, newlines inside
// brackets, blank lines and comments.
type Token struct {
	Kind       Kind
	Literal    string
	Prefix     string
	Error      string
	Start, End Position
}

// String returns the literal of names, numbers, strings and errors or the kinds string
// representation otherwise.
func (t Token) String() string {
	switch t.Kind {
	case Name, Number, String, ERROR, AugAssign:
		return t.Literal
	}
	return t.Kind.String()
}

// Is reports whether the token is of one of the kinds in k.
func (t Token) Is(k Kind) bool {
	return t.Kind&k != 0
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind&Keywords != 0
}

// maxKeywordLen is the length of the longest Vyper keyword which is "continue".
const maxKeywordLen = 8

var keywords = map[string]Kind{
	"def":      Def,
	"import":   Import,
	"from":     From,
	"as":       As,
	"if":       If,
	"elif":     Elif,
	"else":     Else,
	"for":      For,
	"in":       In,
	"not":      Not,
	"and":      And,
	"or":       Or,
	"return":   Return,
	"pass":     Pass,
	"break":    Break,
	"continue": Continue,
	"raise":    Raise,
	"assert":   Assert,
}

// Lookup returns the kind associated with given identifier which is either a Vyper keyword or a
// [Name]. Keywords are case-sensitive. Words that are only reserved in some positions like
// "event", "struct" or "log" are names.
func Lookup(identifier string) Kind {
	if len(identifier) > maxKeywordLen {
		return Name
	}
	if kind, ok := keywords[identifier]; ok {
		return kind
	}
	return Name
}

// declarations are the names introducing a declaration with a body.
var declarations = map[string]bool{
	"event":     true,
	"struct":    true,
	"interface": true,
	"enum":      true,
	"flag":      true,
}

// IsDeclaration reports whether the name starts an event, struct, interface, enum or flag
// declaration.
func IsDeclaration(name string) bool {
	return declarations[name]
}
