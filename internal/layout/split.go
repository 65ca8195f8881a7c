package layout

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/teleivo/vyper/internal/line"
	"github.com/teleivo/vyper/token"
)

// strategy is a way of splitting a line.
type strategy int

const (
	flat strategy = iota
	leftHandSplit
	rightHandSplit
	delimiterSplit
	commentSplit
	hugPower
)

func (s strategy) String() string {
	switch s {
	case flat:
		return "flat"
	case leftHandSplit:
		return "lhs"
	case rightHandSplit:
		return "rhs"
	case delimiterSplit:
		return "delimiter"
	case commentSplit:
		return "comments"
	case hugPower:
		return "hug"
	default:
		panic(fmt.Errorf("strategy Stringer missing case for %d", int(s)))
	}
}

// errCannotSplit is returned by a strategy that does not apply to a line. The next strategy is
// tried.
var errCannotSplit = errors.New("cannot split")

// result is a line emitted as is or the results of splitting it.
type result struct {
	strategy strategy
	line     *line.Line
	children []*result
}

// first returns the first physical line of the result.
func (r *result) first() *line.Line {
	for r.line == nil {
		r = r.children[0]
	}
	return r.line
}

// lines returns the physical lines of the result.
func (r *result) lines() []*line.Line {
	if r.line != nil {
		return []*line.Line{r.line}
	}
	var lines []*line.Line
	for _, c := range r.children {
		lines = append(lines, c.lines()...)
	}
	return lines
}

// Split splits the logical line into physical lines that fit into maxWidth columns where
// possible. Errors other than a strategy not applying are bugs like mismatched brackets.
func Split(l *line.Line, maxWidth int) (*Doc, error) {
	s := splitter{maxWidth: maxWidth}
	r, err := s.split(l, false)
	if err != nil {
		return nil, err
	}

	d := &Doc{maxWidth: maxWidth}
	addResult(d, r)
	return d, nil
}

func addResult(d *Doc, r *result) {
	if r.line != nil {
		d.text(r.line.String(), r.line.Width())
		return
	}
	d.split(r.strategy, func(d *Doc) {
		for _, c := range r.children {
			addResult(d, c)
		}
	})
}

type splitter struct {
	maxWidth int
}

// split splits the line using the first strategy that applies. The line is emitted as is if no
// strategy applies. force prevents the right-hand split from omitting optional parentheses.
func (s splitter) split(l *line.Line, force bool) (*result, error) {
	if l.IsComment() {
		return &result{strategy: flat, line: l}, nil
	}

	fits := l.MagicTrailingComma < 0 && !l.ShouldSplitRHS && l.Fits(s.maxWidth) &&
		!(l.InsideBrackets && l.ContainsStandaloneComments(math.MaxInt))
	var strategies []strategy
	switch {
	case fits:
		// only power operators are hugged
	case l.IsDef():
		strategies = []strategy{leftHandSplit}
	case l.InsideBrackets:
		strategies = []strategy{delimiterSplit, commentSplit, rightHandSplit}
	default:
		strategies = []strategy{rightHandSplit}
	}
	strategies = append(strategies, hugPower)

	lineStr := l.String()
	for _, st := range strategies {
		r, err := s.run(l, st, lineStr, force)
		if errors.Is(err, errCannotSplit) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return &result{strategy: flat, line: l}, nil
}

// run applies the strategy and splits the resulting lines recursively. A right-hand split whose
// first line is still too long is tried again without omitting optional parentheses. The second
// attempt is used if all its lines fit.
func (s splitter) run(l *line.Line, st strategy, lineStr string, force bool) (*result, error) {
	lines, err := s.transform(l, st, force)
	if err != nil {
		return nil, err
	}

	r := &result{strategy: st}
	for _, tl := range lines {
		if tl.String() == lineStr {
			return nil, fmt.Errorf("%w: %s returned an unchanged line", errCannotSplit, st)
		}
		child, err := s.split(tl, force)
		if err != nil {
			return nil, err
		}
		r.children = append(r.children, child)
	}

	if st != rightHandSplit || force || len(l.InvisibleParens()) == 0 || madeVisible(l, r) ||
		r.first().Fits(s.maxWidth) {
		return r, nil
	}
	second, err := s.run(l, st, lineStr, true)
	if err != nil {
		return nil, err
	}
	for _, sl := range second.lines() {
		if !sl.Fits(s.maxWidth) {
			return r, nil
		}
	}
	return second, nil
}

// madeVisible reports whether splitting the line turned any of its invisible parentheses into
// visible ones.
func madeVisible(l *line.Line, r *result) bool {
	ids := make(map[int]bool)
	for _, i := range l.InvisibleParens() {
		if id := l.Leaves[i].ID; id != 0 {
			ids[id] = true
		}
	}
	for _, rl := range r.lines() {
		for _, leaf := range rl.Leaves {
			if ids[leaf.ID] && !leaf.IsInvisible() {
				return true
			}
		}
	}
	return false
}

// transform applies a single strategy.
func (s splitter) transform(l *line.Line, st strategy, force bool) ([]*line.Line, error) {
	switch st {
	case leftHandSplit:
		return s.leftHandSplit(l)
	case rightHandSplit:
		return s.rhs(l, force)
	case delimiterSplit:
		return s.delimiterSplit(l)
	case commentSplit:
		return s.commentSplit(l)
	case hugPower:
		return hugPowerOperators(l)
	}
	return nil, fmt.Errorf("%w: unknown strategy %d", errCannotSplit, int(st))
}

// rhs tries right-hand splits omitting an increasing number of trailing bracket pairs. The first
// split whose head fits is used. If none does the line is split at its last bracket pair.
func (s splitter) rhs(l *line.Line, force bool) ([]*line.Line, error) {
	for _, omit := range s.trailersToOmit(l) {
		lines, err := s.rightHandSplit(l, omit, force)
		if errors.Is(err, errCannotSplit) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if lines[0].Fits(s.maxWidth) {
			return lines, nil
		}
	}
	return s.rightHandSplit(l, nil, force)
}

// trailersToOmit returns cumulative sets of indices of closing brackets a right-hand split can
// skip. A trailer can be skipped if everything up to and including the closing bracket before it
// fits on one line. The first set is empty unless the line has a magic trailing comma. Bracket
// pairs with a magic trailing comma are never skipped.
func (s splitter) trailersToOmit(l *line.Line) [][]int {
	var result [][]int
	if l.MagicTrailingComma < 0 {
		result = append(result, nil)
	}

	var omit, inner []int
	length := 4 * l.Depth
	opening, closing := -1, -1
	for i := len(l.Leaves) - 1; i >= 0; i-- {
		leaf := l.Leaves[i]
		if strings.Contains(leaf.Value, "\n") {
			break
		}
		length += leafWidth(l, i)
		if length > s.maxWidth {
			break
		}
		if leaf.Kind == token.Comment || len(l.CommentsAfter(i)) > 0 {
			break
		}

		if opening >= 0 {
			if i == opening {
				opening = -1
			} else if leaf.Kind&token.Closing != 0 {
				if hasExplodingComma(l, i) {
					break
				}
				inner = append(inner, i)
			}
		} else if leaf.Kind&token.Closing != 0 {
			if i > 0 && l.Leaves[i-1].Kind&token.Opening != 0 {
				// empty brackets would fail a split
				inner = append(inner, i)
				continue
			}
			if closing >= 0 {
				omit = append(omit, closing)
				omit = append(omit, inner...)
				inner = nil
				result = append(result, slices.Clone(omit))
			}
			if hasExplodingComma(l, i) {
				break
			}
			if leaf.Value != "" {
				opening = l.Opening(i)
				closing = i
			}
		}
	}
	return result
}

// hasExplodingComma reports whether the closing bracket at index i is preceded by a comma that
// is not the comma of a one-element tuple.
func hasExplodingComma(l *line.Line, i int) bool {
	if i == 0 || l.Leaves[i-1].Kind != token.Comma {
		return false
	}
	opening := l.Opening(i)
	return opening >= 0 && !l.IsOneSequenceBetween(opening, i)
}

// rightHandSplit splits the line into a head ending with the opening bracket of the last bracket
// pair not in omit, a body with the content of the brackets and a tail starting with the closing
// bracket.
//
// If the bracket pair consists of invisible parentheses the split is tried again on the bracket
// pair before it, unless the parentheses make the line read better.
func (s splitter) rightHandSplit(l *line.Line, omit []int, force bool) ([]*line.Line, error) {
	const (
		inTail = iota
		inBody
		inHead
	)
	state := inTail
	var tail, body, head []int
	opening, closing := -1, -1
	for i := len(l.Leaves) - 1; i >= 0; i-- {
		if state == inBody && i == opening {
			if len(body) > 0 {
				state = inHead
			} else {
				state = inTail
			}
		}
		switch state {
		case inTail:
			tail = append(tail, i)
		case inBody:
			body = append(body, i)
		case inHead:
			head = append(head, i)
		}
		if state == inTail && l.Leaves[i].Kind&token.Closing != 0 && !slices.Contains(omit, i) {
			opening, closing = l.Opening(i), i
			state = inBody
		}
	}
	if opening < 0 || closing < 0 || len(head) == 0 {
		return nil, fmt.Errorf("%w: no brackets found", errCannotSplit)
	}
	slices.Reverse(tail)
	slices.Reverse(body)
	slices.Reverse(head)

	headLine, err := buildLine(l, head, opening, false)
	if err != nil {
		return nil, err
	}
	bodyLine, err := buildLine(l, body, opening, true)
	if err != nil {
		return nil, err
	}
	tailLine, err := buildLine(l, tail, opening, false)
	if err != nil {
		return nil, err
	}
	if err := splitSucceeded(bodyLine, tailLine); err != nil {
		return nil, err
	}

	openLeaf, closeLeaf := l.Leaves[opening], l.Leaves[closing]
	if !force && openLeaf.IsInvisible() && closeLeaf.IsInvisible() && !l.IsImport() &&
		!bodyLine.ContainsStandaloneComments(0) && s.canOmitInvisibleParens(bodyLine) {
		lines, err := s.rightHandSplit(l, append(slices.Clone(omit), closing), force)
		if err == nil {
			return lines, nil
		}
		if !errors.Is(err, errCannotSplit) {
			return nil, err
		}
		if !bodyLine.Fits(s.maxWidth) {
			return nil, fmt.Errorf("%w: body is still too long and cannot be split: %w", errCannotSplit, err)
		}
	}

	headLine.Leaves[len(headLine.Leaves)-1] = openLeaf.Visible()
	tailLine.Leaves[0] = closeLeaf.Visible()
	return nonEmpty(headLine, bodyLine, tailLine), nil
}

// leftHandSplit splits the line at its first bracket pair. This is used for definitions so the
// parameters end up in the body.
func (s splitter) leftHandSplit(l *line.Line) ([]*line.Line, error) {
	const (
		inHead = iota
		inBody
		inTail
	)
	state := inHead
	var head, body, tail []int
	matching := -1
	for i, leaf := range l.Leaves {
		if state == inBody && leaf.Kind&token.Closing != 0 && l.Opening(i) == matching {
			if len(body) > 0 {
				state = inTail
			} else {
				state = inHead
			}
		}
		switch state {
		case inHead:
			head = append(head, i)
		case inBody:
			body = append(body, i)
		case inTail:
			tail = append(tail, i)
		}
		if state == inHead && leaf.Kind&token.Opening != 0 {
			matching = i
			state = inBody
		}
	}
	if matching < 0 {
		return nil, fmt.Errorf("%w: no brackets found", errCannotSplit)
	}

	headLine, err := buildLine(l, head, matching, false)
	if err != nil {
		return nil, err
	}
	bodyLine, err := buildLine(l, body, matching, true)
	if err != nil {
		return nil, err
	}
	tailLine, err := buildLine(l, tail, matching, false)
	if err != nil {
		return nil, err
	}
	if err := splitSucceeded(bodyLine, tailLine); err != nil {
		return nil, err
	}
	if n := len(headLine.Leaves); n > 0 {
		headLine.Leaves[n-1] = headLine.Leaves[n-1].Visible()
	}
	if len(tailLine.Leaves) > 0 {
		tailLine.Leaves[0] = tailLine.Leaves[0].Visible()
	}
	return nonEmpty(headLine, bodyLine, tailLine), nil
}

// buildLine builds the head, body or tail of a bracket split from the leaves at the given
// indices. The body is indented one level, tracks its brackets and gets a trailing comma if it is
// the only parameter of a definition or the content of an import.
func buildLine(src *line.Line, indices []int, opening int, isBody bool) (*line.Line, error) {
	if !isBody {
		result := src.NewUntracked(src.Depth, false)
		for _, i := range indices {
			result.AppendFrom(src, i)
		}
		return result, nil
	}

	result := line.New(src.Depth+1, true)
	result.Interface = src.Interface
	commaAfter := -1
	if len(indices) > 0 && (src.IsImport() || needsParameterComma(src, indices, opening)) {
		for k := len(indices) - 1; k >= 0; k-- {
			leaf := src.Leaves[indices[k]]
			if leaf.Kind == token.Comment {
				continue
			}
			if leaf.Kind != token.Comma {
				commaAfter = k
			}
			break
		}
	}
	for k, i := range indices {
		if err := result.Append(src.Leaves[i], true); err != nil {
			return nil, err
		}
		for _, c := range src.CommentsAfter(i) {
			result.AppendComment(c)
		}
		if k == commaAfter {
			if err := result.Append(line.Leaf{Kind: token.Comma, Value: ","}, true); err != nil {
				return nil, err
			}
		}
	}
	result.ShouldSplitRHS = shouldExplode(result, src, opening)
	return result, nil
}

// needsParameterComma reports whether the body is a single parameter of a definition that gets
// a trailing comma. Return type annotations never get one.
func needsParameterComma(src *line.Line, indices []int, opening int) bool {
	if !src.IsDef() || src.Leaves[opening].Value != "(" {
		return false
	}
	for _, i := range indices {
		if src.Leaves[i].Kind == token.Comma {
			return false
		}
	}
	for i := range opening {
		if src.Leaves[i].Kind == token.Arrow {
			return false
		}
	}
	return true
}

// shouldExplode reports whether the body of a bracket split is a collection that should be
// split one element per line. That is the case if it is delimited by commas and either has a
// trailing comma or is the content of a literal or optional parentheses.
func shouldExplode(body, src *line.Line, opening int) bool {
	if len(body.Leaves) == 0 {
		return false
	}
	var exclude []int
	last := len(body.Leaves) - 1
	trailingComma := body.Leaves[last].Kind == token.Comma
	if trailingComma {
		exclude = append(exclude, last)
	}
	if body.MaxPriority(exclude...) != line.CommaPriority {
		return false
	}
	return trailingComma || isAtom(src, opening)
}

// isAtom reports whether the opening bracket at index i starts a parenthesized expression, a list
// or a dict rather than the arguments of a call or a subscript.
func isAtom(l *line.Line, i int) bool {
	leaf := l.Leaves[i]
	if leaf.IsInvisible() || i == 0 {
		return true
	}
	prev := l.Leaves[i-1]
	return prev.Kind&(token.Name|token.Closing) == 0 || prev.IsInvisible()
}

// splitSucceeded returns an error if a bracket split left everything in the head or split empty
// brackets to save less than three columns.
func splitSucceeded(body, tail *line.Line) error {
	if len(body.Leaves) > 0 {
		return nil
	}
	tailLen := len(strings.TrimSpace(tail.String()))
	if tailLen == 0 {
		return fmt.Errorf("%w: splitting brackets produced the same line", errCannotSplit)
	}
	if tailLen < 3 {
		return fmt.Errorf("%w: splitting brackets on an empty body to save %d characters is not worth it", errCannotSplit, tailLen)
	}
	return nil
}

// canOmitInvisibleParens reports whether the body of optional parentheses reads well without
// them. It may return false for bodies that would read fine but never returns true for bodies
// that would end up too long.
func (s splitter) canOmitInvisibleParens(body *line.Line) bool {
	priority := body.MaxPriority()
	if priority == 0 {
		return true
	}
	if body.DelimiterCount(priority) > 1 {
		return false
	}
	if priority == line.DotPriority {
		return true
	}
	if len(body.Leaves) < 2 {
		return false
	}

	first, second := body.Leaves[0], body.Leaves[1]
	if first.Kind&token.Opening != 0 && second.Kind&token.Closing == 0 && s.canOmitOpeningParen(body) {
		return true
	}

	n := len(body.Leaves)
	penultimate, last := body.Leaves[n-2], body.Leaves[n-1]
	if last.Kind&(token.RightParen|token.RightBrace) != 0 {
		if penultimate.Kind&token.Opening != 0 {
			// empty brackets
			return false
		}
		if s.canOmitClosingParen(body) {
			return true
		}
	}
	return false
}

// canOmitOpeningParen reports whether everything after the bracket pair the line starts with
// fits or can be split at another bracket.
func (s splitter) canOmitOpeningParen(l *line.Line) bool {
	remainder := false
	length := 4 * l.Depth
	for i, leaf := range l.Leaves {
		if leaf.Kind&token.Closing != 0 && l.Opening(i) == 0 {
			remainder = true
		}
		if remainder {
			length += leafWidth(l, i)
			if length > s.maxWidth {
				return false
			}
			if leaf.Kind&token.Opening != 0 {
				remainder = false
			}
		}
	}
	return true
}

// canOmitClosingParen reports whether everything up to the opening bracket of the bracket pair
// the line ends with fits or can be split at another bracket.
func (s splitter) canOmitClosingParen(l *line.Line) bool {
	length := 4 * l.Depth
	lastOpening := l.Opening(len(l.Leaves) - 1)
	seenOtherBrackets := false
	for i, leaf := range l.Leaves {
		length += leafWidth(l, i)
		if i == lastOpening {
			if seenOtherBrackets || length <= s.maxWidth {
				return true
			}
		} else if leaf.Kind&token.Opening != 0 {
			seenOtherBrackets = true
		}
	}
	return false
}

// delimiterSplit splits the line after every delimiter of the priority governing the line. A
// trailing comma is added when splitting at commas.
func (s splitter) delimiterSplit(l *line.Line) ([]*line.Line, error) {
	if len(l.Leaves) == 0 {
		return nil, fmt.Errorf("%w: line empty", errCannotSplit)
	}
	last := len(l.Leaves) - 1
	priority := l.MaxPriority(last)
	if priority == 0 {
		return nil, fmt.Errorf("%w: no delimiters found", errCannotSplit)
	}
	if priority == line.DotPriority && l.DelimiterCount(priority) == 1 {
		return nil, fmt.Errorf("%w: splitting a single attribute from its owner looks wrong", errCannotSplit)
	}

	sp := newSegmenter(l)
	for i := range l.Leaves {
		if err := sp.append(i); err != nil {
			return nil, err
		}
		if l.Delimiter(i) == priority {
			sp.flush()
		}
	}
	if n := len(sp.cur.Leaves); n > 0 && priority == line.CommaPriority {
		if sp.cur.Leaves[n-1].Kind&(token.Comma|token.Comment) == 0 {
			if err := sp.cur.Append(line.Leaf{Kind: token.Comma, Value: ","}, false); err != nil {
				return nil, err
			}
		}
	}
	sp.flush()
	return sp.lines, nil
}

// commentSplit splits the line after standalone comments.
func (s splitter) commentSplit(l *line.Line) ([]*line.Line, error) {
	if !l.ContainsStandaloneComments(math.MaxInt) {
		return nil, fmt.Errorf("%w: line does not have any standalone comments", errCannotSplit)
	}
	sp := newSegmenter(l)
	for i := range l.Leaves {
		if err := sp.append(i); err != nil {
			return nil, err
		}
	}
	sp.flush()
	return sp.lines, nil
}

// segmenter distributes the leaves of a line inside brackets onto new lines at the same depth.
// A standalone comment outside of nested brackets always ends up on a line of its own.
type segmenter struct {
	src   *line.Line
	cur   *line.Line
	lines []*line.Line
}

func newSegmenter(src *line.Line) *segmenter {
	sp := &segmenter{src: src}
	sp.cur = sp.newLine()
	return sp
}

func (sp *segmenter) newLine() *line.Line {
	l := line.New(sp.src.Depth, sp.src.InsideBrackets)
	l.Interface = sp.src.Interface
	return l
}

func (sp *segmenter) append(i int) error {
	leaf := sp.src.Leaves[i]
	if !sp.cur.AnyOpenBrackets() && len(sp.cur.Leaves) > 0 &&
		(sp.cur.IsComment() || leaf.Kind == token.Comment) {
		sp.flush()
	}
	if len(sp.cur.Leaves) == 0 {
		leaf.Prefix = ""
	}
	if err := sp.cur.Append(leaf, true); err != nil {
		return err
	}
	for _, c := range sp.src.CommentsAfter(i) {
		sp.cur.AppendComment(c)
	}
	return nil
}

func (sp *segmenter) flush() {
	if len(sp.cur.Leaves) > 0 {
		sp.lines = append(sp.lines, sp.cur)
	}
	sp.cur = sp.newLine()
}

// hugPowerOperators removes the spaces around power operators.
func hugPowerOperators(l *line.Line) ([]*line.Line, error) {
	if !slices.ContainsFunc(l.Leaves, func(leaf line.Leaf) bool { return leaf.Kind == token.DoubleStar }) {
		return nil, fmt.Errorf("%w: no power operator found", errCannotSplit)
	}

	hugged := l.Clone()
	hug := false
	last := len(hugged.Leaves) - 1
	for i := range hugged.Leaves {
		if hug {
			hugged.Leaves[i].Prefix = ""
		}
		hug = i > 0 && i < last && hugged.Leaves[i].Kind == token.DoubleStar
		if hug {
			hugged.Leaves[i].Prefix = ""
		}
	}
	return []*line.Line{hugged}, nil
}

// leafWidth returns the width of the leaf at index i including its prefix and the comments
// attached to it.
func leafWidth(l *line.Line, i int) int {
	leaf := l.Leaves[i]
	width := runewidth.StringWidth(leaf.Prefix) + runewidth.StringWidth(leaf.Value)
	for _, c := range l.CommentsAfter(i) {
		width += runewidth.StringWidth(c.Value)
	}
	return width
}

func nonEmpty(lines ...*line.Line) []*line.Line {
	var result []*line.Line
	for _, l := range lines {
		if len(l.Leaves) > 0 {
			result = append(result, l)
		}
	}
	return result
}
