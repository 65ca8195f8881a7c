// Package layout splits logical lines into physical lines that fit a maximum width.
//
// [Split] tries a sequence of strategies on a [line.Line] and records the strategies it chose in a
// [Doc], a tree of splits whose leaves are the physical lines:
//   - flat: the line is emitted as is because it fits or cannot be split any further
//   - left-hand split: definitions are split at their first bracket pair
//   - right-hand split: other lines are split at their last bracket pair, skipping trailing
//     bracket pairs that fit and optional parentheses if the content reads better without them
//   - delimiter split: lines inside brackets are split after every delimiter of the lowest
//     priority like commas or boolean operators
//   - comment split: lines inside brackets are split after standalone comments
//   - hug power: spaces around the power operator are removed
//
// Every line produced by a split is split again until it fits or no strategy applies. A split
// that reproduces its input fails and the next strategy is tried. Lines that cannot be split are
// emitted even if they exceed the maximum width.
//
// A [Doc] renders as the formatted lines or as markup showing the strategy tree for debugging.
package layout

import (
	"fmt"
	"io"
	"strings"
)

// Format specifies the output representation for rendering a [Doc].
type Format = int

const (
	// Default renders the formatted physical lines.
	Default Format = iota
	// Layout renders the strategy tree using HTML-like syntax, showing which strategy produced
	// which line. This is useful for debugging why a line was split the way it was.
	Layout
)

var formats = map[string]Format{
	"default": Default,
	"layout":  Layout,
}

var validFormats = [2]string{"default", "layout"}

// NewFormat converts a string to a [Format] constant. Valid values are "default" and "layout".
// Returns an error if the format string is invalid.
func NewFormat(format string) (Format, error) {
	if f, ok := formats[format]; ok {
		return f, nil
	}
	return Default, fmt.Errorf("invalid format string: %q, valid ones are: %q", format, validFormats)
}

// Doc is the result of splitting a logical line. It holds the tree of strategies applied to the
// line with the physical lines as leaves.
type Doc struct {
	maxWidth int
	tags     []*node
}

type tagIterator func(yield func(*node, tagIterator) bool)

// All returns an iterator over the top-level tags in the document. Every tag is yielded together
// with an iterator over its children.
func (d *Doc) All() tagIterator {
	return d.newTagIterator(0, len(d.tags))
}

func (d *Doc) newTagIterator(i, j int) tagIterator {
	return func(yield func(*node, tagIterator) bool) {
		for i < j {
			if d.tags[i].len == 0 {
				if !yield(d.tags[i], d.newTagIterator(i, i)) {
					return
				}
				i++
			} else {
				if !yield(d.tags[i], d.newTagIterator(i+1, i+1+d.tags[i].len)) {
					return
				}
				i = i + 1 + d.tags[i].len
			}
		}
	}
}

// text adds a physical line.
func (d *Doc) text(content string, width int) *Doc {
	return d.tagWith(&text{content: content, width: width}, func(d *Doc) {})
}

// split adds the lines produced by a strategy in body.
func (d *Doc) split(s strategy, body func(*Doc)) *Doc {
	return d.tagWith(&split{strategy: s}, body)
}

func (d *Doc) tagWith(t tag, body func(*Doc)) *Doc {
	i := len(d.tags)
	d.tags = append(d.tags, &node{tag: t})
	body(d)
	if j := len(d.tags); j != i {
		d.tags[i].len = j - i - 1
	}
	return d
}

// Lines returns the physical lines without line terminators.
func (d *Doc) Lines() []string {
	var lines []string
	for _, n := range d.tags {
		if t, ok := n.tag.(*text); ok {
			lines = append(lines, t.content)
		}
	}
	return lines
}

// Render writes the document to the writer in the specified format. Every physical line is
// terminated by a newline in the [Default] format.
func (d *Doc) Render(w io.Writer, format Format) error {
	switch format {
	case Default:
		for _, l := range d.Lines() {
			if _, err := io.WriteString(w, l+"\n"); err != nil {
				return err
			}
		}
		return nil
	case Layout:
		_, err := io.WriteString(w, d.String())
		return err
	}
	return fmt.Errorf("invalid format: %d", format)
}

// String returns the strategy tree as HTML-like markup. Lines exceeding the maximum width are
// marked as overflowing.
func (d *Doc) String() string {
	var sb strings.Builder
	stringIter(&sb, d.All(), 0, d.maxWidth)
	return sb.String()
}

func stringIter(w io.Writer, iter tagIterator, indent, maxWidth int) {
	for t, children := range iter {
		switch tag := t.tag.(type) {
		case *split:
			writeIndent(w, indent)
			fmt.Fprintf(w, "<%s>\n", tag.strategy)
			stringIter(w, children, indent+1, maxWidth)
			writeIndent(w, indent)
			fmt.Fprintf(w, "</%s>\n", tag.strategy)
		case *text:
			writeIndent(w, indent)
			if tag.width > maxWidth {
				fmt.Fprintf(w, "<line width=%d overflow content=%q/>\n", tag.width, tag.content)
			} else {
				fmt.Fprintf(w, "<line width=%d content=%q/>\n", tag.width, tag.content)
			}
		}
	}
}

func writeIndent(w io.Writer, columns int) {
	for range columns {
		fmt.Fprint(w, "\t")
	}
}

type node struct {
	tag tag
	len int
}

func (t *node) String() string {
	return fmt.Sprintf("Node{tag=%s, len=%d}", t.tag, t.len)
}

type tag interface {
	tag()
}

// split groups the lines produced by a strategy.
type split struct {
	strategy strategy
}

func (s *split) tag() {}

func (s *split) String() string {
	return fmt.Sprintf("Split(%s)", s.strategy)
}

// text is a physical line.
type text struct {
	content string
	width   int
}

func (t *text) tag() {}

func (t *text) String() string {
	return fmt.Sprintf("Text(%q)", t.content)
}
