package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// unifiedDiff returns the unified diff turning src into formatted.
func unifiedDiff(path string, src, formatted []byte) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(string(src)),
		B:        splitLines(string(formatted)),
		FromFile: path + "\toriginal",
		ToFile:   path + "\tformatted",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to diff: %v", err)
	}
	return diff, nil
}

// splitLines splits s into lines keeping their newline. A last line without a newline gets one so
// it does not run into the next line of the diff.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}

// writeDiff writes the diff coloring headers, hunks, removed and added lines.
func writeDiff(w io.Writer, diff string, colored bool) error {
	if !colored {
		_, err := io.WriteString(w, diff)
		return err
	}

	header := color.New(color.Bold)
	hunk := color.New(color.FgCyan)
	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	for _, c := range []*color.Color{header, hunk, removed, added} {
		c.EnableColor()
	}

	for l := range strings.Lines(diff) {
		text := strings.TrimSuffix(l, "\n")
		var err error
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			_, err = header.Fprintln(w, text)
		case strings.HasPrefix(text, "@@"):
			_, err = hunk.Fprintln(w, text)
		case strings.HasPrefix(text, "-"):
			_, err = removed.Fprintln(w, text)
		case strings.HasPrefix(text, "+"):
			_, err = added.Fprintln(w, text)
		default:
			_, err = fmt.Fprintln(w, text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
