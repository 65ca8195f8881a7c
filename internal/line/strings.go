package line

import (
	"math"
	"regexp"
	"strings"
)

// stringPrefixChars are the characters that can prefix a Vyper string literal like b"" or x"".
const stringPrefixChars = "bBrRxX"

// NormalizeString returns the string literal with a lowercase prefix and double quotes unless
// double quotes need more escaping than the quotes used. Triple-quoted strings using single quotes
// are changed to use double quotes.
func NormalizeString(s string) string {
	body := strings.TrimLeft(s, stringPrefixChars)
	prefix := strings.ToLower(s[:len(s)-len(body)])
	return prefix + normalizeQuotes(body)
}

var (
	escapedDouble       = regexp.MustCompile(`([^\\]|^)\\((?:\\\\)*)"`)
	escapedSingle       = regexp.MustCompile(`([^\\]|^)\\((?:\\\\)*)'`)
	escapedTripleDouble = regexp.MustCompile(`([^\\]|^)\\((?:\\\\)*)"""`)
	escapedTripleSingle = regexp.MustCompile(`([^\\]|^)\\((?:\\\\)*)'''`)
	unescapedDouble     = regexp.MustCompile(`(([^\\]|^)(\\\\)*)"`)
	unescapedSingle     = regexp.MustCompile(`(([^\\]|^)(\\\\)*)'`)
	unescapedTriple     = regexp.MustCompile(`(([^\\]|^)(\\\\)*)"""`)
)

func normalizeQuotes(s string) string {
	var orig, quote string
	var escapedQuote, escapedOrig, unescapedQuote *regexp.Regexp
	switch {
	case strings.HasPrefix(s, `"""`):
		return s
	case strings.HasPrefix(s, `'''`):
		orig, quote = `'''`, `"""`
		escapedQuote, escapedOrig, unescapedQuote = escapedTripleDouble, escapedTripleSingle, unescapedTriple
	case strings.HasPrefix(s, `"`):
		orig, quote = `"`, `'`
		escapedQuote, escapedOrig, unescapedQuote = escapedSingle, escapedDouble, unescapedSingle
	case strings.HasPrefix(s, `'`):
		orig, quote = `'`, `"`
		escapedQuote, escapedOrig, unescapedQuote = escapedDouble, escapedSingle, unescapedDouble
	default:
		return s
	}
	if len(s) < 2*len(orig) {
		return s
	}

	body := s[len(orig) : len(s)-len(orig)]
	// remove unnecessary escapes
	newBody := replaceTwice(escapedQuote, "${1}${2}"+quote, body)
	if newBody != body {
		body = newBody
		s = orig + body + orig
	}
	newBody = replaceTwice(escapedOrig, "${1}${2}"+orig, newBody)
	newBody = replaceTwice(unescapedQuote, `${1}\`+quote, newBody)
	if quote == `"""` && strings.HasSuffix(newBody, `"`) {
		newBody = newBody[:len(newBody)-1] + `\"`
	}

	origEscapes := strings.Count(body, `\`)
	newEscapes := strings.Count(newBody, `\`)
	if newEscapes > origEscapes {
		return s
	}
	if newEscapes == origEscapes && orig == `"` {
		return s
	}
	return quote + newBody + quote
}

// replaceTwice replaces matches twice to also catch overlapping matches.
func replaceTwice(re *regexp.Regexp, repl, s string) string {
	return re.ReplaceAllString(re.ReplaceAllString(s, repl), repl)
}

// IsMultilineString reports whether the string literal is triple-quoted and spans multiple lines.
func IsMultilineString(s string) bool {
	s = strings.TrimLeft(s, stringPrefixChars)
	return (strings.HasPrefix(s, `"""`) || strings.HasPrefix(s, `'''`)) && strings.Contains(s, "\n")
}

// Docstring returns the normalized docstring literal of a declaration at the given indentation
// depth. The text is stripped and re-indented following PEP 257. The closing quotes are moved onto
// a line of their own if they would make the last line exceed maxWidth.
func Docstring(s string, depth, maxWidth int) string {
	s = NormalizeString(s)
	if strings.TrimLeft(s, stringPrefixChars) != s {
		return s
	}
	quoteChar := s[:1]
	quoteLen := 1
	if strings.HasPrefix(s, strings.Repeat(quoteChar, 3)) && len(s) >= 6 {
		quoteLen = 3
	}
	doc := s[quoteLen : len(s)-quoteLen]
	startedEmpty := doc == ""
	indent := strings.Repeat(indentation, depth)

	if IsMultilineString(s) {
		doc = fixDocstring(doc, indent)
	} else {
		doc = strings.TrimSpace(doc)
	}

	if doc != "" {
		if doc[:1] == quoteChar {
			doc = " " + doc
		}
		if doc[len(doc)-1:] == quoteChar {
			doc += " "
		}
		if strings.HasSuffix(doc, `\`) {
			backslashes := len(doc) - len(strings.TrimRight(doc, `\`))
			if backslashes%2 == 1 {
				doc += " "
			}
		}
	} else if !startedEmpty {
		doc = " "
	}

	quote := strings.Repeat(quoteChar, quoteLen)
	if quoteLen == 1 {
		return quote + doc + quote
	}
	lines := strings.Split(doc, "\n")
	last := len([]rune(lines[len(lines)-1]))
	if len(lines) == 1 {
		last += len(indent) + quoteLen
	}
	if last+quoteLen > maxWidth {
		return quote + doc + "\n" + indent + quote
	}
	return quote + doc + quote
}

// fixDocstring strips the common indentation of all lines but the first and indents them with
// the given prefix.
func fixDocstring(doc, prefix string) string {
	if doc == "" {
		return ""
	}
	lines := expandLeadingTabs(doc)
	indent := math.MaxInt
	for _, line := range lines[1:] {
		stripped := strings.TrimLeft(line, " \t\f\v\r")
		if stripped != "" {
			indent = min(indent, len(line)-len(stripped))
		}
	}

	trimmed := []string{strings.TrimSpace(lines[0])}
	if indent < math.MaxInt {
		lastLine := len(lines) - 2
		for i, line := range lines[1:] {
			var stripped string
			if len(line) > indent {
				stripped = strings.TrimRight(line[indent:], " \t\f\v\r")
			}
			if stripped != "" || i == lastLine {
				trimmed = append(trimmed, prefix+stripped)
			} else {
				trimmed = append(trimmed, "")
			}
		}
	}
	return strings.Join(trimmed, "\n")
}

// expandLeadingTabs splits s into lines expanding tabs in the leading whitespace of lines to the
// next multiple of 8 columns.
func expandLeadingTabs(s string) []string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, line := range lines {
		rest := strings.TrimLeft(line, " \t")
		lead := line[:len(line)-len(rest)]
		if !strings.Contains(lead, "\t") || rest == "" {
			continue
		}
		var col int
		for _, c := range lead {
			if c == '\t' {
				col += 8 - col%8
			} else {
				col++
			}
		}
		lines[i] = strings.Repeat(" ", col) + rest
	}
	return lines
}
