// Package oracle decides whether formatted Vyper code is equivalent to the code it was formatted
// from.
//
// The formatter only changes whitespace, comments placement, string quotes, optional parentheses
// and trailing commas. A [Comparator] guards against bugs in the formatter by comparing the
// original and the formatted source. The default [Tokens] compares the significant tokens of both.
package oracle

import (
	"fmt"
	"strings"

	"github.com/teleivo/vyper"
	"github.com/teleivo/vyper/token"
)

// Comparator compares the original source to its formatted version. Compare returns nil if both
// are equivalent and a [*MismatchError] describing the first difference otherwise.
type Comparator interface {
	Compare(original, formatted []byte) error
}

// Func adapts a function reporting whether two sources are equivalent to a [Comparator].
type Func func(original, formatted []byte) bool

// Compare calls f(original, formatted).
func (f Func) Compare(original, formatted []byte) error {
	if f(original, formatted) {
		return nil
	}
	return &MismatchError{}
}

// MismatchError describes the first difference between the original and the formatted source.
// Pos is the position in the original source. A zero Pos means the comparator could not locate the
// difference.
type MismatchError struct {
	Pos  token.Position
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	if !e.Pos.IsValid() {
		return "formatted code is not equivalent to the source"
	}
	return fmt.Sprintf("%s: formatted code is not equivalent to the source: want %s, got %s", e.Pos, e.Want, e.Got)
}

// Tokens compares the significant tokens of the original and the formatted source. Differences
// the formatter is allowed to make are ignored:
//
//   - comments and whitespace
//   - trailing commas that do not make a tuple
//   - parentheses around a whole right-hand side, left-hand side or condition
//   - string prefix case, quote style and escaped quotes
//   - indentation of lines in triple-quoted strings
type Tokens struct{}

// Compare implements [Comparator].
func (Tokens) Compare(original, formatted []byte) error {
	want := significant(original)
	got := significant(formatted)

	for i := range min(len(want), len(got)) {
		if want[i].kind != got[i].kind || want[i].value != got[i].value {
			return &MismatchError{Pos: want[i].pos, Want: want[i].String(), Got: got[i].String()}
		}
	}
	switch {
	case len(want) > len(got):
		pos := want[len(got)].pos
		return &MismatchError{Pos: pos, Want: want[len(got)].String(), Got: "end of file"}
	case len(got) > len(want):
		var pos token.Position
		if len(want) > 0 {
			pos = want[len(want)-1].pos
		}
		return &MismatchError{Pos: pos, Want: "end of file", Got: got[len(want)].String()}
	}
	return nil
}

// sig is a significant token.
type sig struct {
	kind  token.Kind
	value string
	pos   token.Position
}

func (s sig) String() string {
	switch s.kind {
	case token.Name, token.Number, token.String, token.ERROR:
		return fmt.Sprintf("%s %q", s.kind, s.value)
	}
	return fmt.Sprintf("%q", s.kind.String())
}

// significant scans src and returns its tokens without the ones that are allowed to change.
func significant(src []byte) []sig {
	sc := vyper.NewScanner(src)
	var sigs []sig
	var logical []token.Token
	for {
		tok := sc.Next()
		switch tok.Kind {
		case token.Newline, token.Indent, token.Dedent, token.EOF:
			sigs = appendLogicalLine(sigs, logical)
			logical = logical[:0]
			sigs = append(sigs, sig{kind: tok.Kind, pos: tok.Start})
		case token.ERROR:
			logical = append(logical, token.Token{Kind: tok.Kind, Literal: tok.Error, Start: tok.Start})
		default:
			logical = append(logical, tok)
		}
		if tok.Kind == token.EOF {
			return sigs
		}
	}
}

// appendLogicalLine appends the significant tokens of a logical line.
func appendLogicalLine(sigs []sig, toks []token.Token) []sig {
	if len(toks) == 0 {
		return sigs
	}

	depths := make([]int, len(toks))
	matching := make(map[int]int)
	var stack []int
	for i, t := range toks {
		if t.Kind&token.Closing != 0 && len(stack) > 0 {
			matching[stack[len(stack)-1]] = i
			stack = stack[:len(stack)-1]
		}
		depths[i] = len(stack)
		if t.Kind&token.Opening != 0 {
			stack = append(stack, i)
		}
	}
	openings := make(map[int]int, len(matching))
	for o, c := range matching {
		openings[c] = o
	}

	drop := make([]bool, len(toks))
	dropTrailingCommas(toks, depths, openings, drop)
	dropClauseParens(toks, depths, matching, drop)

	for i, t := range toks {
		if drop[i] {
			continue
		}
		value := t.Literal
		if t.Kind == token.String {
			value = canonicalString(value)
		}
		sigs = append(sigs, sig{kind: t.Kind, value: value, pos: t.Start})
	}
	return sigs
}

// dropTrailingCommas marks commas before closing brackets unless the comma makes a single element
// tuple or subscript.
func dropTrailingCommas(toks []token.Token, depths []int, openings map[int]int, drop []bool) {
	for i := 1; i < len(toks); i++ {
		if toks[i].Kind&token.Closing == 0 || toks[i-1].Kind != token.Comma {
			continue
		}
		o, ok := openings[i]
		if !ok {
			continue
		}
		if commas(toks, depths, o+1, i-1, depths[o]+1) == 1 {
			switch {
			case toks[o].Kind == token.LeftParen && !follows(toks, o, token.Name|token.Closing):
				continue
			case toks[o].Kind == token.LeftBracket && follows(toks, o, token.Name|token.Closing|token.String):
				continue
			}
		}
		drop[i-1] = true
	}
}

// dropClauseParens marks parentheses enclosing a whole clause like the right-hand side of an
// assignment or the condition of an if statement. Parentheses containing a comma are only marked
// around either side of an assignment as they make a tuple everywhere else.
func dropClauseParens(toks []token.Token, depths []int, matching map[int]int, drop []bool) {
	first := toks[0].Kind
	var assignment bool
	for i, t := range toks {
		if depths[i] == 0 && t.Kind&(token.Assign|token.AugAssign) != 0 {
			assignment = true
			break
		}
	}

	var starts []int
	if assignment {
		starts = append(starts, 0)
	}
	for i, t := range toks {
		if depths[i] != 0 {
			continue
		}
		if t.Kind&(token.If|token.Elif|token.Assert|token.Assign|token.AugAssign|token.Return) != 0 ||
			(t.Kind == token.Comma && first == token.Assert) {
			starts = append(starts, i+1)
		}
	}

	for _, s := range starts {
		e := s
		for e < len(toks) && !endsClause(toks[e], depths[e], first) {
			e++
		}
		e--
		tuples := assignment && (s == 0 || toks[s-1].Kind&(token.Assign|token.AugAssign) != 0)
		for e-s > 1 && toks[s].Kind == token.LeftParen {
			if c, ok := matching[s]; !ok || c != e {
				break
			}
			if !tuples && commas(toks, depths, s+1, e-1, depths[s]+1) > 0 {
				break
			}
			drop[s], drop[e] = true, true
			s++
			e--
		}
	}
}

func endsClause(t token.Token, depth int, first token.Kind) bool {
	if depth != 0 {
		return false
	}
	switch t.Kind {
	case token.Assign, token.AugAssign:
		return true
	case token.Colon:
		return first&(token.If|token.Elif) != 0
	case token.Comma:
		return first == token.Assert
	}
	return false
}

func commas(toks []token.Token, depths []int, from, to, depth int) int {
	var n int
	for i := from; i <= to; i++ {
		if depths[i] == depth && toks[i].Kind == token.Comma {
			n++
		}
	}
	return n
}

func follows(toks []token.Token, i int, kinds token.Kind) bool {
	return i > 0 && toks[i-1].Kind&kinds != 0
}

// canonicalString returns the string literal with a lowercase prefix, its quotes and escaped quotes
// removed. Lines of triple-quoted strings are compared without surrounding whitespace.
func canonicalString(s string) string {
	body := strings.TrimLeft(s, "bBrRxX")
	prefix := strings.ToLower(s[:len(s)-len(body)])

	quote := 1
	if strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`) {
		quote = 3
	}
	if len(body) < 2*quote {
		return s
	}
	body = body[quote : len(body)-quote]
	body = strings.NewReplacer(`\"`, `"`, `\'`, `'`).Replace(body)
	if quote == 3 {
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(line)
		}
		body = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return prefix + body
}
