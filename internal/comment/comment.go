// Package comment extracts comments from the prefix of tokens and classifies them.
//
// A comment is trailing if it starts on the line of the code preceding it and standalone if it is
// on a line of its own. A trailing comment is attached to a leaf and rendered after the line the
// leaf ends up on. A standalone comment inside brackets forces the brackets to be split.
package comment

import (
	"regexp"
	"strings"
)

// Kind classifies a comment by its placement.
type Kind int

const (
	// Trailing comments follow code on the same line.
	Trailing Kind = iota
	// Standalone comments are on a line of their own.
	Standalone
)

func (k Kind) String() string {
	if k == Trailing {
		return "trailing"
	}
	return "standalone"
}

// Comment is a comment found in the prefix of a token.
type Comment struct {
	Kind Kind
	// Value is the normalized comment text including the leading '#'.
	Value string
	// Newlines is the number of blank lines between the previous comment or code and the comment.
	Newlines int
}

// Extract returns the comments in the given prefix in source order. The prefix of a token that
// starts a logical line has no code before it, lineStart must be true for such prefixes so every
// comment is standalone.
func Extract(prefix string, lineStart bool) []Comment {
	var comments []Comment
	var blank int
	for i, line := range splitLines(prefix) {
		line = strings.TrimLeft(line, " \t\f")
		if line == "" {
			blank++
			continue
		}
		if line[0] != '#' {
			// line continuation
			continue
		}

		kind := Standalone
		if i == 0 && !lineStart {
			kind = Trailing
		}
		newlines := blank
		if kind == Standalone && !lineStart && len(comments) == 0 && newlines > 0 {
			// the first line of the prefix is the rest of the line of the previous token
			newlines--
		}
		comments = append(comments, Comment{
			Kind:     kind,
			Value:    Normalize(line),
			Newlines: newlines,
		})
		blank = 0
	}
	return comments
}

// BlankLines returns the number of blank lines between the last comment in the prefix and the
// token. It returns the number of blank lines in the whole prefix if it has no comment. The
// prefix is expected to start at the beginning of a line.
func BlankLines(prefix string) int {
	if i := strings.LastIndexByte(prefix, '#'); i >= 0 {
		nl := strings.IndexByte(prefix[i:], '\n')
		if nl < 0 {
			return 0
		}
		prefix = prefix[i+nl+1:]
	}
	return strings.Count(prefix, "\n")
}

// HasContinuation reports whether the prefix contains a backslash line continuation.
func HasContinuation(prefix string) bool {
	for _, line := range splitLines(prefix) {
		line = strings.TrimLeft(line, " \t\f")
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(strings.TrimRight(line, "\r"), `\`) {
			return true
		}
	}
	return false
}

var wordAfterHash = regexp.MustCompile(`^#(\w)`)

// Normalize returns the comment with trailing whitespace removed and a space inserted between '#'
// and the text if the text starts with a word character. Comments like "#!" or "#:" are left
// unchanged.
func Normalize(comment string) string {
	comment = strings.TrimRight(comment, " \t\f\r")
	return wordAfterHash.ReplaceAllString(comment, "# $1")
}

var pragma = regexp.MustCompile(`^#\s*(@version|pragma)\s`)

// IsPragma reports whether the comment is a version pragma like "# @version ^0.3.10" or
// "# pragma version ~=0.4.0".
func IsPragma(comment string) bool {
	return pragma.MatchString(comment)
}

// splitLines splits the prefix at newlines. A '#' inside a line is only at its start after
// leading whitespace since the prefix holds no code.
func splitLines(prefix string) []string {
	return strings.Split(strings.ReplaceAll(prefix, "\r\n", "\n"), "\n")
}
