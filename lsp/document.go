package lsp

import (
	"bytes"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/teleivo/vyper/lsp/internal/rpc"
)

// document is a text document opened in the client.
type document struct {
	uri     rpc.DocumentURI
	version int32
	src     []byte
}

func newDocument(item rpc.TextDocumentItem) *document {
	return &document{
		uri:     item.URI,
		version: item.Version,
		src:     []byte(item.Text),
	}
}

// change applies a content change. A change without a range replaces the whole document.
func (d *document) change(event rpc.TextDocumentContentChangeEvent) error {
	if event.Range == nil {
		d.src = []byte(event.Text)
		return nil
	}

	start, err := d.offset(event.Range.Start)
	if err != nil {
		return err
	}
	end, err := d.offset(event.Range.End)
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("invalid range: start %d:%d is after end %d:%d",
			event.Range.Start.Line, event.Range.Start.Character, event.Range.End.Line, event.Range.End.Character)
	}

	d.src = slices.Concat(d.src[:start], []byte(event.Text), d.src[end:])
	return nil
}

// offset returns the byte offset of pos. A character past the end of its line is clamped to the
// end of the line.
func (d *document) offset(pos rpc.Position) (int, error) {
	var i int
	for line := uint32(0); line < pos.Line; line++ {
		j := bytes.IndexByte(d.src[i:], '\n')
		if j < 0 {
			return 0, fmt.Errorf("invalid position %d:%d: document has %d lines", pos.Line, pos.Character, line+1)
		}
		i += j + 1
	}

	for range pos.Character {
		if i >= len(d.src) || d.src[i] == '\n' {
			break
		}
		_, size := utf8.DecodeRune(d.src[i:])
		i += size
	}
	return i, nil
}

// end returns the position after the last character of the document.
func (d *document) end() rpc.Position {
	lines := bytes.Count(d.src, []byte("\n"))
	last := d.src[bytes.LastIndexByte(d.src, '\n')+1:]
	return rpc.Position{Line: uint32(lines), Character: uint32(utf8.RuneCount(last))}
}
