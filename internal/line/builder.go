package line

import (
	"github.com/teleivo/vyper"
	"github.com/teleivo/vyper/internal/comment"
	"github.com/teleivo/vyper/token"
)

// Scope describes where a statement is in the source.
type Scope struct {
	// Depth is the block depth of the statement.
	Depth int
	// Interface is true for statements in the body of an interface declaration.
	Interface bool
	// Docstring is true for a string statement that is the first statement of a declaration body.
	Docstring bool
}

// Builder builds logical lines from statements. The leaves of all lines built by the same builder
// have distinct IDs.
type Builder struct {
	maxWidth int
	id       int
}

// NewBuilder returns a builder fitting docstrings into maxWidth columns.
func NewBuilder(maxWidth int) *Builder {
	return &Builder{maxWidth: maxWidth}
}

// Build turns the tokens of a statement or the header of a compound statement into lines. The
// standalone comments before the statement are returned as comment lines followed by the line of
// the statement. The tokens of nested blocks are not part of the line.
func (b *Builder) Build(stmt *vyper.Tree, scope Scope) ([]*Line, error) {
	toks := vyper.Tokens(stmt, ^token.Kind(0))
	if len(toks) == 0 {
		return nil, nil
	}

	lines := b.CommentLines(toks[0].Prefix, scope.Depth)
	l, err := b.build(toks, scope)
	if err != nil {
		return nil, err
	}
	l.Newlines = comment.BlankLines(toks[0].Prefix)
	return append(lines, l), nil
}

// CommentLines returns a comment line for every comment in the prefix of a token starting a
// logical line.
func (b *Builder) CommentLines(prefix string, depth int) []*Line {
	var lines []*Line
	for _, c := range comment.Extract(prefix, true) {
		l := Comment(depth, c)
		l.Newlines = c.Newlines
		lines = append(lines, l)
	}
	return lines
}

func (b *Builder) build(toks []token.Token, scope Scope) (*Line, error) {
	var trailing []comment.Comment
	if last := toks[len(toks)-1]; last.Kind == token.Newline {
		trailing = comment.Extract(last.Prefix, false)
		toks = toks[:len(toks)-1]
	}
	for i, t := range toks {
		if t.Kind == token.Semicolon {
			return nil, &UnsupportedError{Pos: t.Start, Construct: "statements separated by ';'"}
		}
		if i > 0 && comment.HasContinuation(t.Prefix) {
			return nil, &UnsupportedError{Pos: t.Start, Construct: "backslash line continuation"}
		}
	}

	plan := planParens(toks)
	docstring := scope.Docstring && len(toks) == 1 && toks[0].Kind == token.String

	l := New(scope.Depth, false)
	l.Interface = scope.Interface
	for i, t := range toks {
		if i > 0 {
			for _, c := range comment.Extract(t.Prefix, false) {
				if c.Kind == comment.Trailing {
					l.AppendComment(c)
					continue
				}
				if err := l.Append(Leaf{Kind: token.Comment, Value: c.Value, Pos: t.Start}, false); err != nil {
					return nil, err
				}
			}
		}

		for range plan.open[i] {
			if err := l.Append(b.invisible(token.LeftParen, t.Start), false); err != nil {
				return nil, err
			}
		}
		leaf := b.leaf(t)
		if plan.hide[i] {
			leaf.Value = ""
		}
		if t.Kind == token.String {
			if docstring && scope.Depth > 0 {
				leaf.Value = Docstring(t.Literal, scope.Depth, b.maxWidth)
			} else {
				// the module docstring only gets its quotes normalized
				leaf.Value = NormalizeString(t.Literal)
			}
		}
		if err := l.Append(leaf, false); err != nil {
			return nil, err
		}
		for range plan.close[i] {
			if err := l.Append(b.invisible(token.RightParen, t.End), false); err != nil {
				return nil, err
			}
		}
	}
	for _, c := range trailing {
		l.AppendComment(c)
	}
	l.docstring = docstring
	return l, nil
}

func (b *Builder) leaf(t token.Token) Leaf {
	b.id++
	return Leaf{Kind: t.Kind, Value: t.Literal, Pos: t.Start, ID: b.id}
}

func (b *Builder) invisible(kind token.Kind, pos token.Position) Leaf {
	b.id++
	return Leaf{Kind: kind, Pos: pos, ID: b.id}
}

// parens records where invisible parentheses go. Opening ones are inserted before and closing ones
// after the token at an index. Redundant parentheses are hidden.
type parens struct {
	open  map[int]int
	close map[int]int
	hide  map[int]bool
	// matching maps the index of an opening bracket to its closing bracket.
	matching map[int]int
	depths   []int
}

// planParens wraps the right-hand side of assignments, the conditions of if and elif and the
// operands of assert into invisible parentheses so they can be split. Tuples on the left-hand
// side of an assignment are wrapped as well.
func planParens(toks []token.Token) *parens {
	p := &parens{
		open:     make(map[int]int),
		close:    make(map[int]int),
		hide:     make(map[int]bool),
		matching: make(map[int]int),
		depths:   make([]int, len(toks)),
	}
	var stack []int
	for i, t := range toks {
		if t.Kind&token.Closing != 0 && len(stack) > 0 {
			p.matching[stack[len(stack)-1]] = i
			stack = stack[:len(stack)-1]
		}
		p.depths[i] = len(stack)
		if t.Kind&token.Opening != 0 {
			stack = append(stack, i)
		}
	}
	if len(toks) == 0 {
		return p
	}

	last := len(toks) - 1
	switch {
	case toks[0].Kind&(token.If|token.Elif) != 0 && toks[last].Kind == token.Colon:
		p.normalizeAtom(toks, 1, last-1)
	case toks[0].Kind == token.Assert:
		from := 1
		for i := 1; i <= last; i++ {
			if p.depths[i] == 0 && toks[i].Kind == token.Comma {
				p.wrap(from, i-1)
				from = i + 1
			}
		}
		p.wrap(from, last)
	default:
		for i, t := range toks {
			if p.depths[i] != 0 || t.Kind&(token.Assign|token.AugAssign) == 0 {
				continue
			}
			if p.hasComma(toks, 0, i-1, 0) {
				p.wrap(0, i-1)
			}
			p.wrap(i+1, last)
			break
		}
	}
	return p
}

// wrap wraps the tokens from index from to index to in invisible parentheses if there is more
// than one.
func (p *parens) wrap(from, to int) {
	if to-from < 1 {
		return
	}
	p.open[from]++
	p.close[to]++
}

// normalizeAtom hides redundant parentheses around the tokens from index from to index to and
// wraps them into invisible parentheses otherwise. Parentheses of tuples stay visible.
func (p *parens) normalizeAtom(toks []token.Token, from, to int) {
	if !p.isAtom(toks, from, to) {
		p.wrap(from, to)
		return
	}
	for p.isAtom(toks, from, to) {
		p.hide[from] = true
		p.hide[to] = true
		from++
		to--
	}
}

// isAtom reports whether the tokens are enclosed by a pair of parentheses that can be removed
// without changing the meaning.
func (p *parens) isAtom(toks []token.Token, from, to int) bool {
	if from >= to || toks[from].Kind != token.LeftParen || toks[to].Kind != token.RightParen {
		return false
	}
	if closing, ok := p.matching[from]; !ok || closing != to {
		return false
	}
	if to-from == 1 {
		// empty tuple
		return false
	}
	return !p.hasComma(toks, from+1, to-1, p.depths[from]+1)
}

func (p *parens) hasComma(toks []token.Token, from, to, depth int) bool {
	for i := from; i <= to; i++ {
		if p.depths[i] == depth && toks[i].Kind == token.Comma {
			return true
		}
	}
	return false
}
