package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Writer writes JSON-RPC messages to an [io.Writer] using the base protocol framing.
// The base protocol consists of a header and content part, where the header is separated
// from the content by an empty line (\r\n).
//
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#baseProtocol
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a new Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes the message and writes it with the appropriate Content-Length header. It returns
// the encoded content.
func (w *Writer) Write(msg Message) ([]byte, error) {
	content, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %v", err)
	}
	if _, err := fmt.Fprintf(w.w, "Content-Length: %d\r\n\r\n", len(content)); err != nil {
		return nil, err
	}
	if _, err := w.w.Write(content); err != nil {
		return nil, err
	}
	return content, w.w.Flush()
}
