// Package printer prints Vyper source code formatted in the spirit of [black].
//
// The printer parses the source, turns every statement into a logical line, splits lines that do
// not fit into the maximum width and normalizes the blank lines between them. Only whitespace,
// line breaks, optional parentheses, string quotes and trailing commas are changed. The formatted
// code is compared to the source by a [oracle.Comparator] before it is written unless the safety
// check is disabled.
//
// [black]: https://github.com/psf/black
package printer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/teleivo/vyper"
	"github.com/teleivo/vyper/internal/layout"
	"github.com/teleivo/vyper/internal/line"
	"github.com/teleivo/vyper/internal/oracle"
	"github.com/teleivo/vyper/token"
)

const (
	// maxWidth is the default number of columns after which lines are split. Not every line can be
	// split though.
	maxWidth = 80
)

// Options configure the [Printer].
type Options struct {
	// MaxWidth is the number of columns lines should fit into. Defaults to 80 if zero.
	MaxWidth int
	// Safe compares the formatted code to the source and checks that formatting it again does not
	// change it.
	Safe bool
	// Comparator compares the source to the formatted code if Safe is set. Defaults to
	// [oracle.Tokens].
	Comparator oracle.Comparator
	// Fallback writes the source unchanged if the safety check fails.
	Fallback bool
	// Format is the output format. The safety check is skipped for [layout.Layout].
	Format layout.Format
}

// DefaultOptions returns the options used when formatting files: a width of 80 columns with the
// safety check enabled.
func DefaultOptions() Options {
	return Options{
		MaxWidth: maxWidth,
		Safe:     true,
		Format:   layout.Default,
	}
}

// Printer formats Vyper code.
type Printer struct {
	src  []byte    // src Vyper code to format
	w    io.Writer // w writer to output formatted Vyper code to
	opts Options
}

// New creates a new printer that formats the Vyper code in src and writes the formatted output
// to w.
func New(src []byte, w io.Writer, opts Options) *Printer {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = maxWidth
	}
	if opts.Comparator == nil {
		opts.Comparator = oracle.Tokens{}
	}
	return &Printer{
		src:  src,
		w:    w,
		opts: opts,
	}
}

// Print parses the Vyper code and writes the formatted output to the writer. Nothing is written
// if an error occurs, except for the source itself if the safety check fails and
// [Options.Fallback] is set.
//
// Parse errors are returned as joined [vyper.Error] values. Constructs the printer does not support
// are returned as [*line.UnsupportedError]. A [*SafetyError] is returned if the formatted code is
// not equivalent to the source and an [*InternalError] for bugs in the printer.
func (p *Printer) Print() error {
	if p.opts.Format == layout.Layout {
		return p.layout()
	}

	got, err := format(p.src, p.opts.MaxWidth)
	if err != nil {
		return err
	}

	if p.opts.Safe {
		if err := p.check(got); err != nil {
			if p.opts.Fallback {
				if _, werr := p.w.Write(p.src); werr != nil {
					return errors.Join(err, werr)
				}
			}
			return err
		}
	}

	_, err = p.w.Write(got)
	return err
}

// check verifies that the formatted code is equivalent to the source and stable.
func (p *Printer) check(got []byte) error {
	if bytes.Equal(got, p.src) {
		return nil
	}
	if err := p.opts.Comparator.Compare(p.src, got); err != nil {
		return &SafetyError{Err: err}
	}

	again, err := format(got, p.opts.MaxWidth)
	if err != nil {
		return &InternalError{Err: fmt.Errorf("failed to format the formatted code: %w", err)}
	}
	if !bytes.Equal(again, got) {
		return &InternalError{Err: errors.New("formatting is not stable, formatting the formatted code changed it")}
	}
	return nil
}

// layout writes the split strategies chosen for every line.
func (p *Printer) layout() (err error) {
	defer recoverInternal(&err)

	tree, err := vyper.Parse(p.src)
	if err != nil {
		return err
	}
	f := newFormatter(p.opts.MaxWidth)
	if err := f.file(tree); err != nil {
		return internal(err)
	}
	var buf bytes.Buffer
	for _, l := range f.lines {
		doc, err := layout.Split(l.line, p.opts.MaxWidth)
		if err != nil {
			return internal(err)
		}
		if err := doc.Render(&buf, layout.Layout); err != nil {
			return err
		}
	}
	_, err = p.w.Write(buf.Bytes())
	return err
}

// format formats src returning the formatted code.
func format(src []byte, maxWidth int) (out []byte, err error) {
	defer recoverInternal(&err)

	tree, err := vyper.Parse(src)
	if err != nil {
		return nil, err
	}

	f := newFormatter(maxWidth)
	if err := f.file(tree); err != nil {
		return nil, internal(err)
	}

	var buf bytes.Buffer
	for _, l := range f.lines {
		for range l.before {
			buf.WriteByte('\n')
		}
		doc, err := layout.Split(l.line, maxWidth)
		if err != nil {
			return nil, internal(err)
		}
		if err := doc.Render(&buf, layout.Default); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// formatter turns the statements of a tree into lines and the number of blank lines before them.
type formatter struct {
	builder *line.Builder
	blank   emptyLines
	lines   []blankLine
}

type blankLine struct {
	before int
	line   *line.Line
}

func newFormatter(maxWidth int) *formatter {
	return &formatter{builder: line.NewBuilder(maxWidth)}
}

func (f *formatter) file(tree *vyper.Tree) error {
	first := true
	for _, child := range tree.Children {
		switch c := child.(type) {
		case vyper.TreeChild:
			scope := line.Scope{Docstring: first && isDocstring(c.Tree)}
			if err := f.stmt(c.Tree, scope); err != nil {
				return err
			}
			first = false
		case vyper.TokenChild:
			if c.Kind == token.EOF {
				f.emit(f.builder.CommentLines(c.Prefix, 0))
			}
		}
	}
	return nil
}

func (f *formatter) stmt(stmt *vyper.Tree, scope line.Scope) error {
	lines, err := f.builder.Build(stmt, scope)
	if err != nil {
		return err
	}
	f.emit(lines)

	if stmt.Kind != vyper.KindCompoundStmt {
		return nil
	}
	block, ok := vyper.TreeFirst(stmt, vyper.KindBlock)
	if !ok {
		return nil
	}
	header, _ := vyper.TokenFirst(stmt, ^token.Kind(0))
	return f.block(block, line.Scope{
		Depth:     scope.Depth + 1,
		Interface: header.Kind == token.Name && header.Literal == "interface",
	}, isDeclaration(header))
}

func (f *formatter) block(block *vyper.Tree, scope line.Scope, declaration bool) error {
	first := true
	for _, child := range block.Children {
		switch c := child.(type) {
		case vyper.TreeChild:
			s := scope
			s.Docstring = first && declaration && isDocstring(c.Tree)
			if err := f.stmt(c.Tree, s); err != nil {
				return err
			}
			first = false
		case vyper.TokenChild:
			if c.Kind == token.Dedent {
				// comments indented into the block before it ends
				f.emit(f.builder.CommentLines(c.Prefix, scope.Depth))
			}
		}
	}
	return nil
}

// emit appends the lines built from a statement. The blank lines separating a declaration from
// the code before it go before the comments directly preceding the declaration.
func (f *formatter) emit(lines []*line.Line) {
	if len(lines) == 0 {
		return
	}
	last := lines[len(lines)-1]
	attached := len(lines) - 1
	if last.IsDef() || last.IsDecorator() {
		for attached > 0 && lines[attached].Newlines == 0 && isComment(lines[attached-1]) {
			attached--
		}
	}

	for i, l := range lines {
		var before int
		switch {
		case i < attached:
			before = f.blank.next(l, l)
		case i == attached:
			before = f.blank.next(l, last)
		default:
			f.blank.previous = l
		}
		f.lines = append(f.lines, blankLine{before: before, line: l})
	}
}

// emptyLines computes the number of blank lines before a line.
type emptyLines struct {
	previous *line.Line
	// defs holds the depths of the declarations whose body has not ended yet.
	defs []int
}

// next returns the number of blank lines before l. The kind of the line is taken from kind which
// differs from l for comments attached to a declaration.
func (e *emptyLines) next(l, kind *line.Line) int {
	before := e.before(l, kind)
	e.previous = l
	return before
}

func (e *emptyLines) before(l, kind *line.Line) int {
	depth := l.Depth
	maxBlank := 2
	if depth > 0 {
		maxBlank = 1
	}
	before := min(l.Newlines, maxBlank)
	for len(e.defs) > 0 && e.defs[len(e.defs)-1] >= depth {
		e.defs = e.defs[:len(e.defs)-1]
		before = maxBlank
	}

	if kind.IsDecorator() || kind.IsDef() {
		if !kind.IsDecorator() {
			e.defs = append(e.defs, depth)
		}
		if e.previous == nil || e.previous.IsDecorator() || e.previous.Depth < depth {
			return 0
		}
		newlines := 1
		if kind.IsDecorator() {
			newlines++
		}
		if depth > 0 {
			newlines--
		}
		return newlines
	}

	switch {
	case e.previous == nil, kind.IsPragma(), e.previous.Depth < depth:
		return 0
	case e.previous.IsPragma():
		return max(before, 1)
	case e.previous.IsImport() && !kind.IsImport() && e.previous.Depth == depth:
		return max(before, 1)
	}
	return before
}

func isComment(l *line.Line) bool {
	return len(l.Leaves) == 1 && l.Leaves[0].Kind == token.Comment
}

// isDocstring reports whether the statement consists of a single string.
func isDocstring(stmt *vyper.Tree) bool {
	if stmt.Kind != vyper.KindSimpleStmt {
		return false
	}
	toks := vyper.Tokens(stmt, ^token.Newline)
	return len(toks) == 1 && toks[0].Kind == token.String
}

// isDeclaration reports whether a compound statement starting with tok has a body that can start
// with a docstring.
func isDeclaration(tok token.Token) bool {
	return tok.Kind == token.Def || (tok.Kind == token.Name && token.IsDeclaration(tok.Literal))
}

// SafetyError is returned if the formatted code is not equivalent to the source. The formatted
// code is discarded.
type SafetyError struct {
	Err error
}

func (e *SafetyError) Error() string {
	return "formatting would change the meaning of the code: " + e.Err.Error()
}

func (e *SafetyError) Unwrap() error {
	return e.Err
}

// InternalError is returned for bugs in the printer like a violated invariant. The formatted code
// is discarded.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// internal wraps invariant violations in an [*InternalError]. Constructs the formatter does not
// support are returned as is.
func internal(err error) error {
	var mismatch *line.MismatchError
	if errors.As(err, &mismatch) {
		return &InternalError{Err: err}
	}
	return err
}

// recoverInternal turns a panic of a violated assertion into an [*InternalError].
func recoverInternal(err *error) {
	if r := recover(); r != nil {
		*err = &InternalError{Err: fmt.Errorf("%v", r)}
	}
}
