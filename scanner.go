package vyper

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/teleivo/vyper/internal/assert"
	"github.com/teleivo/vyper/token"
)

const (
	eof = -1 // end of file

	tabSize = 8 // columns a tab advances indentation to, like Python
)

// Scanner tokenizes Vyper source code into a stream of tokens.
//
// Like Python, Vyper uses indentation to delimit blocks. The scanner emits [token.Newline] at the
// end of every logical line, [token.Indent] and [token.Dedent] when the indentation changes and
// treats newlines inside brackets as whitespace. Whitespace and comments are not returned as tokens
// but are kept verbatim in the [token.Token.Prefix] of the token following them:
//
//   - a comment trailing a statement is in the prefix of the statement's NEWLINE
//   - blank lines and comment lines before a statement are in the prefix of its first token
//   - comment lines before a dedent that are indented deeper than the code following them are in
//     the prefix of the DEDENT closing the block they are indented into
type Scanner struct {
	src       []byte
	offset    int // offset of the rune after peek
	curOffset int // offset of cur
	curSize   int
	cur       rune
	curLine   int
	curColumn int
	peek      rune
	peekSize  int
	eof       bool

	mark      int   // offset at which the prefix of the next token starts
	indents   []int // stack of indentation columns of open blocks
	depth     int   // bracket nesting depth
	lineStart bool  // next token starts a logical line
	lastKind  token.Kind
	pending   []token.Token
}

// NewScanner creates a new scanner that tokenizes the given Vyper source code.
func NewScanner(src []byte) *Scanner {
	sc := Scanner{
		src:       src,
		cur:       eof,
		peek:      eof,
		curLine:   1,
		indents:   []int{0},
		lineStart: true,
	}

	// initialize current and peek runes
	sc.next()
	sc.next()
	sc.curColumn = 1

	return &sc
}

// Next advances the scanners position by one token and returns it. When encountering invalid input,
// the scanner continues scanning. Invalid input results in a token of kind [token.ERROR] with the
// error message in [token.Token.Error]. A token of kind [token.EOF] is returned once the end of
// input is reached and on every call after that.
func (sc *Scanner) Next() token.Token {
	tok := sc.nextToken()
	assert.That(tok.Kind != token.ERROR || tok.Error != "", "ERROR token must have an error message")
	sc.lastKind = tok.Kind
	return tok
}

func (sc *Scanner) nextToken() token.Token {
	if len(sc.pending) > 0 {
		tok := sc.pending[0]
		sc.pending = sc.pending[1:]
		return tok
	}

	if sc.lineStart && sc.depth == 0 {
		sc.lineStart = false
		if sc.scanIndentation() {
			return sc.nextToken()
		}
	}

	for {
		switch {
		case sc.cur == ' ' || sc.cur == '\t' || sc.cur == '\f' || sc.cur == '\r':
			sc.next()
		case sc.cur == '\\' && (sc.peek == '\n' || sc.peek == '\r'):
			// line continuation, kept in the prefix
			sc.next()
			sc.skipNewline()
		case sc.cur == '#':
			sc.skipComment()
		case sc.cur == '\n' && sc.depth > 0:
			sc.next()
		case sc.cur == '\n':
			tok := sc.tokenAt(token.Newline, sc.pos())
			sc.next()
			tok.Literal = "\n"
			sc.mark = sc.curOffset
			sc.lineStart = true
			return tok
		case sc.cur < 0:
			return sc.scanEOF()
		default:
			return sc.scanToken()
		}
	}
}

// scanEOF returns the tokens at the end of input. A statement not terminated by a newline is
// terminated by a NEWLINE with an empty literal.
func (sc *Scanner) scanEOF() token.Token {
	pos := sc.pos()
	if sc.depth == 0 && sc.lastKind&(token.Newline|token.Indent|token.Dedent|token.EOF) == 0 && sc.lastKind != 0 {
		tok := sc.tokenAt(token.Newline, pos)
		sc.mark = sc.curOffset
		sc.lineStart = true
		return tok
	}
	if sc.depth == 0 && len(sc.indents) > 1 {
		sc.lineStart = true
		if sc.scanIndentation() {
			return sc.nextToken()
		}
	}

	tok := sc.tokenAt(token.EOF, pos)
	sc.mark = sc.curOffset
	return tok
}

// line is a blank or comment line preceding a statement.
type line struct {
	end     int // offset after the lines newline
	column  int // indentation column of the comment
	comment bool
}

// scanIndentation scans blank and comment lines up to the first token of a logical line and
// queues INDENT or DEDENT tokens if its indentation differs from the current block. It reports
// whether tokens were queued.
func (sc *Scanner) scanIndentation() bool {
	var lines []line
	var column int
	for {
		column = 0
		for sc.cur == ' ' || sc.cur == '\t' || sc.cur == '\f' {
			switch sc.cur {
			case ' ':
				column++
			case '\t':
				column = (column/tabSize + 1) * tabSize
			case '\f':
				column = 0
			}
			sc.next()
		}

		if sc.cur == '\r' && sc.peek == '\n' {
			sc.next()
		}
		if sc.cur == '\n' {
			sc.next()
			lines = append(lines, line{end: sc.curOffset})
			continue
		}
		if sc.cur == '#' {
			sc.skipComment()
			comment := line{end: sc.curOffset, column: column, comment: true}
			if sc.cur == '\r' && sc.peek == '\n' {
				sc.next()
			}
			if sc.cur == '\n' {
				sc.next()
				comment.end = sc.curOffset
			}
			lines = append(lines, comment)
			continue
		}
		break
	}

	if sc.cur < 0 {
		column = 0
	}

	pos := sc.pos()
	top := sc.indents[len(sc.indents)-1]
	if column > top {
		if sc.cur < 0 {
			return false
		}
		sc.indents = append(sc.indents, column)
		sc.pending = append(sc.pending, token.Token{Kind: token.Indent, Start: pos, End: pos})
		return true
	}
	if column == top {
		return false
	}

	// levels of the blocks closed by each dedent, innermost first
	var closed []int
	for len(sc.indents) > 1 && sc.indents[len(sc.indents)-1] > column {
		closed = append(closed, sc.indents[len(sc.indents)-1])
		sc.indents = sc.indents[:len(sc.indents)-1]
	}

	// a comment line stays in the innermost closed block it is indented into
	ends := make([]int, len(closed))
	for i := range ends {
		ends[i] = sc.mark
	}
	var target int
	for _, l := range lines {
		if !l.comment {
			continue
		}
		for target < len(closed) && l.column < closed[target] {
			target++
		}
		if target == len(closed) {
			break
		}
		for i := target; i < len(closed); i++ {
			ends[i] = l.end
		}
	}

	start := sc.mark
	for _, end := range ends {
		sc.pending = append(sc.pending, token.Token{
			Kind:   token.Dedent,
			Prefix: string(sc.src[start:end]),
			Start:  pos,
			End:    pos,
		})
		start = end
	}
	sc.mark = start

	if sc.indents[len(sc.indents)-1] != column {
		sc.indents = append(sc.indents, column)
		sc.pending = append(sc.pending, token.Token{
			Kind:  token.ERROR,
			Error: "unindent does not match any outer indentation level",
			Start: pos,
			End:   pos,
		})
	}
	return true
}

// next reads one rune and advances the scanner's position markers depending on the read rune.
func (sc *Scanner) next() {
	// advance position based on current rune
	if sc.cur == '\n' {
		sc.curLine++
		sc.curColumn = 1
	} else if sc.cur >= 0 {
		sc.curColumn++
	}
	sc.curOffset += sc.curSize

	// already at EOF
	if sc.eof {
		sc.cur = eof
		sc.curSize = 0
		return
	}

	sc.cur = sc.peek
	sc.curSize = sc.peekSize

	if sc.offset < len(sc.src) {
		r, size := utf8.DecodeRune(sc.src[sc.offset:])
		sc.offset += size
		sc.peek = r
		sc.peekSize = size
		// RuneError with size 1 means invalid UTF-8 byte sequence
		// continue scanning and let tokenization produce an ERROR token
	} else {
		sc.eof = true
		sc.peek = eof
		sc.peekSize = 0
	}
}

// pos returns the current position as a token.Position.
func (sc *Scanner) pos() token.Position {
	return token.Position{Line: sc.curLine, Column: sc.curColumn}
}

// tokenAt returns a token of given kind starting at pos with the pending prefix.
func (sc *Scanner) tokenAt(kind token.Kind, pos token.Position) token.Token {
	return token.Token{
		Kind:   kind,
		Prefix: string(sc.src[sc.mark:sc.curOffset]),
		Start:  pos,
		End:    pos,
	}
}

func (sc *Scanner) skipComment() {
	for sc.cur >= 0 && sc.cur != '\n' && !(sc.cur == '\r' && sc.peek == '\n') {
		sc.next()
	}
}

func (sc *Scanner) skipNewline() {
	if sc.cur == '\r' {
		sc.next()
	}
	if sc.cur == '\n' {
		sc.next()
	}
}

func (sc *Scanner) error(reason string) string {
	switch {
	case sc.cur < 0:
		return reason
	case sc.cur >= 0x20 && sc.cur < 0x7F:
		return fmt.Sprintf("invalid character %q: %s", sc.cur, reason)
	case sc.cur >= 0x80:
		return fmt.Sprintf("invalid character U+%04X '%c': %s", sc.cur, sc.cur, reason)
	default:
		return fmt.Sprintf("invalid character U+%04X: %s", sc.cur, reason)
	}
}

// scanToken scans the significant token starting at the current rune.
func (sc *Scanner) scanToken() token.Token {
	tok := sc.tokenAt(0, sc.pos())
	startOffset := sc.curOffset

	switch {
	case isStartOfName(sc.cur):
		sc.scanName(&tok)
	case isDigit(sc.cur) || (sc.cur == '.' && isDigit(sc.peek)):
		sc.scanNumber(&tok)
	case sc.cur == '"' || sc.cur == '\'':
		sc.scanString(&tok)
	default:
		sc.scanOperator(&tok)
	}

	tok.Literal = string(sc.src[startOffset:sc.curOffset])
	sc.mark = sc.curOffset

	switch tok.Kind {
	case token.LeftParen, token.LeftBracket, token.LeftBrace:
		sc.depth++
	case token.RightParen, token.RightBracket, token.RightBrace:
		if sc.depth > 0 {
			sc.depth--
		}
	}
	return tok
}

func isStartOfName(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isLegalInName(r rune) bool {
	return isStartOfName(r) || isDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isStringPrefix reports whether the name is a string prefix like b in b"abc".
func isStringPrefix(name string) bool {
	switch name {
	case "b", "B", "x", "X", "r", "R", "br", "Br", "bR", "BR", "rb", "rB", "Rb", "RB":
		return true
	}
	return false
}

func (sc *Scanner) scanName(tok *token.Token) {
	start := sc.curOffset
	for sc.cur >= 0 && isLegalInName(sc.cur) {
		sc.end(tok)
		sc.next()
	}

	name := string(sc.src[start:sc.curOffset])
	if (sc.cur == '"' || sc.cur == '\'') && isStringPrefix(name) {
		sc.scanString(tok)
		return
	}
	if sc.cur >= 0x80 && unicode.IsLetter(sc.cur) {
		tok.Kind = token.ERROR
		tok.Error = sc.error("names can only contain ASCII letters, digits, and underscores")
		for sc.cur >= 0x80 || isLegalInName(sc.cur) {
			sc.end(tok)
			sc.next()
		}
		return
	}
	tok.Kind = token.Lookup(name)
}

// end records the current rune as the last rune of the token.
func (sc *Scanner) end(tok *token.Token) {
	tok.End = sc.pos()
}

func (sc *Scanner) scanNumber(tok *token.Token) {
	tok.Kind = token.Number
	hex := sc.cur == '0' && (sc.peek == 'x' || sc.peek == 'X')
	var prev rune
	for sc.cur >= 0 {
		if isLegalInName(sc.cur) || sc.cur == '.' {
			prev = sc.cur
			sc.end(tok)
			sc.next()
			continue
		}
		if (sc.cur == '+' || sc.cur == '-') && (prev == 'e' || prev == 'E') && !hex {
			prev = sc.cur
			sc.end(tok)
			sc.next()
			continue
		}
		break
	}
}

func (sc *Scanner) scanString(tok *token.Token) {
	tok.Kind = token.String
	quote := sc.cur
	triple := sc.peek == quote && sc.offset < len(sc.src) && rune(sc.src[sc.offset]) == quote
	if triple {
		sc.end(tok)
		sc.next()
		sc.end(tok)
		sc.next()
	}
	sc.end(tok)
	sc.next()

	var escaped bool
	var closing int
	for sc.cur >= 0 {
		if !triple && sc.cur == '\n' {
			break
		}
		r := sc.cur
		sc.end(tok)
		sc.next()

		if escaped {
			escaped = false
			closing = 0
			continue
		}
		switch {
		case r == '\\':
			escaped = true
			closing = 0
		case r == quote:
			closing++
			if !triple || closing == 3 {
				return
			}
		default:
			closing = 0
		}
	}

	tok.Kind = token.ERROR
	if triple {
		tok.Error = fmt.Sprintf("unterminated triple-quoted string: missing closing %s", string([]rune{quote, quote, quote}))
	} else {
		tok.Error = fmt.Sprintf("unterminated string: missing closing %q", quote)
	}
}

// operators maps operator literals to their kind. Scanning tries the longest literal first.
var operators = map[string]token.Kind{
	"(": token.LeftParen, ")": token.RightParen,
	"[": token.LeftBracket, "]": token.RightBracket,
	"{": token.LeftBrace, "}": token.RightBrace,
	",": token.Comma, ".": token.Dot, ":": token.Colon, ";": token.Semicolon,
	"@": token.At, "=": token.Assign, "->": token.Arrow, "...": token.Ellipsis,
	"+": token.Plus, "-": token.Minus, "*": token.Star, "/": token.Slash,
	"//": token.DoubleSlash, "%": token.Percent, "**": token.DoubleStar,
	"<<": token.LeftShift, ">>": token.RightShift, "&": token.Ampersand,
	"|": token.Pipe, "^": token.Caret, "~": token.Tilde,
	"<": token.Less, ">": token.Greater, "==": token.Equal, "!=": token.NotEqual,
	"<=": token.LessEqual, ">=": token.GreaterEqual,
	"+=": token.AugAssign, "-=": token.AugAssign, "*=": token.AugAssign, "/=": token.AugAssign,
	"//=": token.AugAssign, "%=": token.AugAssign, "**=": token.AugAssign,
	"<<=": token.AugAssign, ">>=": token.AugAssign, "&=": token.AugAssign,
	"|=": token.AugAssign, "^=": token.AugAssign,
}

func (sc *Scanner) scanOperator(tok *token.Token) {
	candidate := make([]byte, 0, 3)
	if sc.cur < utf8.RuneSelf {
		candidate = append(candidate, byte(sc.cur))
	}
	if sc.peek >= 0 && sc.peek < utf8.RuneSelf {
		candidate = append(candidate, byte(sc.peek))
		if sc.offset < len(sc.src) {
			candidate = append(candidate, sc.src[sc.offset])
		}
	}

	for n := len(candidate); n > 0; n-- {
		if kind, ok := operators[string(candidate[:n])]; ok {
			tok.Kind = kind
			for range n {
				sc.end(tok)
				sc.next()
			}
			return
		}
	}

	tok.Kind = token.ERROR
	if sc.cur == '!' {
		tok.Error = sc.error("use '!=' for inequality or 'not' for negation")
	} else {
		tok.Error = sc.error("unexpected character")
	}
	sc.end(tok)
	sc.next()
}
