package line

import (
	"math"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/teleivo/vyper/internal/comment"
	"github.com/teleivo/vyper/token"
)

// indentation is the indentation of one block level.
const indentation = "    "

// Line is a logical line of Vyper code at a block depth.
//
// A line created by [New] tracks the brackets of appended leaves. Lines created by splitting
// another line like the head or tail of a bracket split are untracked and carry over the
// bracket metadata of the line they were split from using [Line.AppendFrom].
type Line struct {
	// Depth is the block depth of the line. The line is indented by four spaces per depth.
	Depth  int
	Leaves []Leaf
	// Comments maps leaf indices to the trailing comments rendered at the end of the line.
	Comments map[int][]comment.Comment
	// InsideBrackets is true for lines that are part of a split bracket pair.
	InsideBrackets bool
	// ShouldSplitRHS is true for a bracket body that is a collection which should be exploded
	// one element per line.
	ShouldSplitRHS bool
	// MagicTrailingComma is the index of a closing bracket preceded by a trailing comma that
	// forces the line to be split or -1.
	MagicTrailingComma int
	// Interface is true for lines in the body of an interface declaration.
	Interface bool
	// Newlines is the number of blank lines before the line in the source.
	Newlines int

	docstring bool

	brackets *BracketTracker
	depths   []int
	openings []int
}

// New returns an empty line tracking the brackets of appended leaves.
func New(depth int, insideBrackets bool) *Line {
	return &Line{
		Depth:              depth,
		Comments:           make(map[int][]comment.Comment),
		InsideBrackets:     insideBrackets,
		MagicTrailingComma: -1,
		brackets:           NewBracketTracker(),
	}
}

// NewUntracked returns an empty line that copies bracket metadata from the lines its leaves come
// from. The new line inherits the interface flag of l.
func (l *Line) NewUntracked(depth int, insideBrackets bool) *Line {
	return &Line{
		Depth:              depth,
		Comments:           make(map[int][]comment.Comment),
		InsideBrackets:     insideBrackets,
		MagicTrailingComma: -1,
		Interface:          l.Interface,
	}
}

// Comment returns a line consisting of a single standalone comment.
func Comment(depth int, c comment.Comment) *Line {
	l := New(depth, false)
	l.Leaves = append(l.Leaves, Leaf{Kind: token.Comment, Value: c.Value})
	l.depths = append(l.depths, 0)
	l.openings = append(l.openings, -1)
	return l
}

// Append adds the leaf to the line. The prefix of a leaf that is not preformatted is computed
// from the leaves before it. Leaves are marked by the bracket tracker if the line tracks brackets.
func (l *Line) Append(leaf Leaf, preformatted bool) error {
	if l.brackets == nil {
		l.appendLeaf(leaf, 0, -1)
		return nil
	}
	if !preformatted {
		leaf.Prefix = whitespace(l, leaf)
	}
	if l.InsideBrackets || !preformatted {
		l.appendLeaf(leaf, 0, -1)
		if err := l.brackets.Mark(l, len(l.Leaves)-1); err != nil {
			return err
		}
		if l.hasMagicTrailingComma(len(l.Leaves) - 1) {
			l.MagicTrailingComma = len(l.Leaves) - 1
		}
		return nil
	}
	l.appendLeaf(leaf, l.brackets.Depth(), -1)
	return nil
}

// AppendFrom appends the leaf at index i of src together with its bracket metadata and comments.
// The opening bracket of a closing bracket is looked up among the leaves already on l.
func (l *Line) AppendFrom(src *Line, i int) {
	leaf := src.Leaves[i]
	opening := -1
	if o := src.Opening(i); o >= 0 {
		id := src.Leaves[o].ID
		for j := len(l.Leaves) - 1; j >= 0; j-- {
			if l.Leaves[j].ID == id && l.Leaves[j].Kind&token.Opening != 0 {
				opening = j
				break
			}
		}
	}
	l.appendLeaf(leaf, src.BracketDepth(i), opening)
	for _, c := range src.Comments[i] {
		l.AppendComment(c)
	}
}

func (l *Line) appendLeaf(leaf Leaf, depth, opening int) {
	l.Leaves = append(l.Leaves, leaf)
	l.depths = append(l.depths, depth)
	l.openings = append(l.openings, opening)
}

// AppendComment attaches a trailing comment to the last leaf. A trailing comment after an
// invisible closing parenthesis around a single leaf is attached to that leaf. A comment on a line
// without leaves is added as a standalone comment leaf.
func (l *Line) AppendComment(c comment.Comment) {
	if len(l.Leaves) == 0 {
		l.appendLeaf(Leaf{Kind: token.Comment, Value: c.Value}, 0, -1)
		return
	}
	last := len(l.Leaves) - 1
	if l.Leaves[last].Kind == token.RightParen && l.Leaves[last].IsInvisible() && last >= 2 &&
		l.Opening(last) == last-2 {
		last--
	}
	l.Comments[last] = append(l.Comments[last], c)
}

// CommentsAfter returns the comments attached to the leaf at index i.
func (l *Line) CommentsAfter(i int) []comment.Comment {
	return l.Comments[i]
}

// BracketDepth returns the bracket depth of the leaf at index i.
func (l *Line) BracketDepth(i int) int {
	return l.depths[i]
}

// Opening returns the index of the opening bracket of the closing bracket at index i or -1.
func (l *Line) Opening(i int) int {
	return l.openings[i]
}

// Delimiter returns the priority of splitting the line after the leaf at index i or zero.
func (l *Line) Delimiter(i int) Priority {
	if l.brackets == nil {
		return 0
	}
	return l.brackets.Delimiter(i)
}

// MaxPriority returns the priority governing the split of the line at its delimiters, ignoring
// the delimiters after the leaves at the given indices. It returns zero if there are none.
func (l *Line) MaxPriority(exclude ...int) Priority {
	if l.brackets == nil {
		return 0
	}
	return l.brackets.MaxPriority(exclude...)
}

// DelimiterCount returns the number of delimiters of the given priority.
func (l *Line) DelimiterCount(p Priority) int {
	if l.brackets == nil {
		return 0
	}
	return l.brackets.DelimiterCount(p)
}

// InvisibleParens returns the indices of the invisible parentheses on the line.
func (l *Line) InvisibleParens() []int {
	if l.brackets == nil {
		var result []int
		for i, leaf := range l.Leaves {
			if leaf.IsInvisible() {
				result = append(result, i)
			}
		}
		return result
	}
	return l.brackets.Invisible()
}

// IsComment reports whether the line consists of a single standalone comment or a docstring.
// Such lines are never split.
func (l *Line) IsComment() bool {
	return len(l.Leaves) == 1 && (l.Leaves[0].Kind == token.Comment || l.docstring)
}

// AnyOpenBrackets reports whether the line has unclosed brackets.
func (l *Line) AnyOpenBrackets() bool {
	return l.brackets != nil && l.brackets.AnyOpenBrackets()
}

// IsPragma reports whether the line is a version pragma comment.
func (l *Line) IsPragma() bool {
	return l.IsComment() && l.Leaves[0].Kind == token.Comment && comment.IsPragma(l.Leaves[0].Value)
}

// IsDecorator reports whether the line is a decorator.
func (l *Line) IsDecorator() bool {
	return len(l.Leaves) > 0 && l.Leaves[0].Kind == token.At
}

// IsImport reports whether the line is an import statement.
func (l *Line) IsImport() bool {
	return len(l.Leaves) > 0 && l.Leaves[0].Kind&(token.Import|token.From) != 0
}

// IsDef reports whether the line starts a function definition or a declaration with a body like
// an event or struct. Functions declared in an interface body have no body and are no
// definitions.
func (l *Line) IsDef() bool {
	if len(l.Leaves) == 0 {
		return false
	}
	first := l.Leaves[0]
	if first.Kind == token.Def {
		return !l.Interface
	}
	return first.Kind == token.Name && token.IsDeclaration(first.Value) && len(l.Leaves) > 1 &&
		l.Leaves[1].Kind == token.Name
}

// IsFlowControl reports whether the line leaves the block like a return statement.
func (l *Line) IsFlowControl() bool {
	return len(l.Leaves) > 0 && l.Leaves[0].Kind&token.FlowControl != 0
}

// ContainsStandaloneComments reports whether a standalone comment leaf is at a bracket depth of
// at most depthLimit.
func (l *Line) ContainsStandaloneComments(depthLimit int) bool {
	for i, leaf := range l.Leaves {
		if leaf.Kind == token.Comment && l.depths[i] <= depthLimit {
			return true
		}
	}
	return false
}

// ContainsMultilineStrings reports whether a string leaf spans multiple lines.
func (l *Line) ContainsMultilineStrings() bool {
	for _, leaf := range l.Leaves {
		if leaf.Kind == token.String && IsMultilineString(leaf.Value) {
			return true
		}
	}
	return false
}

// IsOneSequenceBetween reports whether the parentheses at the given indices enclose a tuple
// with a single element. Parentheses of calls and parameter lists never enclose a one-element
// tuple.
func (l *Line) IsOneSequenceBetween(opening, closing int) bool {
	if l.Leaves[opening].Kind != token.LeftParen || l.Leaves[closing].Kind != token.RightParen {
		return false
	}
	depth := l.depths[closing] + 1
	var commas int
	for i := opening + 1; i < closing; i++ {
		if l.depths[i] == depth && l.Leaves[i].Kind == token.Comma {
			commas++
		}
	}
	if commas > 0 && l.isCallParen(opening) {
		return false
	}
	return commas < 2
}

func (l *Line) isCallParen(opening int) bool {
	if opening == 0 || l.Leaves[opening].IsInvisible() {
		return false
	}
	prev := l.Leaves[opening-1]
	return prev.Kind&(token.Name|token.Closing) != 0 && !prev.IsInvisible()
}

// hasMagicTrailingComma reports whether the closing bracket at index i is preceded by a comma
// that forces the brackets to be split.
func (l *Line) hasMagicTrailingComma(i int) bool {
	closing := l.Leaves[i]
	if closing.Kind&token.Closing == 0 || i == 0 || l.Leaves[i-1].Kind != token.Comma {
		return false
	}
	if closing.Kind&(token.RightBracket|token.RightBrace) != 0 {
		return true
	}
	if l.IsImport() {
		return true
	}
	opening := l.openings[i]
	return opening >= 0 && !l.IsOneSequenceBetween(opening, i)
}

// String renders the line with its indentation and trailing comments.
func (l *Line) String() string {
	if len(l.Leaves) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(strings.Repeat(indentation, l.Depth))
	sb.WriteString(l.Leaves[0].Value)
	for _, leaf := range l.Leaves[1:] {
		sb.WriteString(leaf.Prefix)
		sb.WriteString(leaf.Value)
	}
	indices := make([]int, 0, len(l.Comments))
	for i := range l.Comments {
		indices = append(indices, i)
	}
	slices.Sort(indices)
	for _, i := range indices {
		for _, c := range l.Comments[i] {
			sb.WriteString("  ")
			sb.WriteString(c.Value)
		}
	}
	return sb.String()
}

// Width returns the display width of the rendered line.
func (l *Line) Width() int {
	return runewidth.StringWidth(l.String())
}

// Fits reports whether the rendered line fits into maxWidth columns. Lines spanning multiple
// lines or containing standalone comments never fit.
func (l *Line) Fits(maxWidth int) bool {
	s := l.String()
	return runewidth.StringWidth(s) <= maxWidth && !strings.Contains(s, "\n") &&
		!l.ContainsStandaloneComments(math.MaxInt)
}

// Clone returns a deep copy of the line.
func (l *Line) Clone() *Line {
	c := *l
	c.Leaves = slices.Clone(l.Leaves)
	c.depths = slices.Clone(l.depths)
	c.openings = slices.Clone(l.openings)
	c.Comments = make(map[int][]comment.Comment, len(l.Comments))
	for i, cs := range l.Comments {
		c.Comments[i] = slices.Clone(cs)
	}
	if l.brackets != nil {
		c.brackets = l.brackets.clone()
	}
	return &c
}
