// Package lsp implements a language server for Vyper that formats documents and reports syntax
// errors.
//
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/
package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/teleivo/vyper/internal/version"
	"github.com/teleivo/vyper/lsp/internal/diagnostic"
	"github.com/teleivo/vyper/lsp/internal/rpc"
	"github.com/teleivo/vyper/printer"
)

const serverName = "vyfmt"

// Config configures the [Server].
type Config struct {
	In  io.Reader // In is the input the client sends messages on.
	Out io.Writer // Out is the output the server responds on.
	// Logger logs the messages and errors of the server. Logs are discarded if nil.
	Logger *slog.Logger
	// Options configure formatting. The printer defaults are used if MaxWidth is zero.
	Options printer.Options
}

// Server is a language server speaking the language server protocol over In and Out.
type Server struct {
	in        io.Reader
	out       *rpc.Writer
	logger    *slog.Logger
	opts      printer.Options
	state     state
	documents map[rpc.DocumentURI]*document
}

type state int

const (
	uninitialized state = iota
	initialized
	shuttingDown
)

// errExit is returned by a handler when the client asked the server to exit.
var errExit = errors.New("exit")

// New creates a language server.
func New(cfg Config) (*Server, error) {
	if cfg.In == nil || cfg.Out == nil {
		return nil, errors.New("in and out must be set")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := cfg.Options
	if opts.MaxWidth == 0 {
		opts = printer.DefaultOptions()
	}
	return &Server{
		in:        cfg.In,
		out:       rpc.NewWriter(cfg.Out),
		logger:    logger,
		opts:      opts,
		documents: make(map[rpc.DocumentURI]*document),
	}, nil
}

// Start serves requests until the context is cancelled, the input ends or the client sends the
// exit notification.
func (srv *Server) Start(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- srv.serve()
	}()

	select {
	case <-ctx.Done():
		srv.logger.Debug("shutting down")
		return nil
	case err := <-done:
		return err
	}
}

func (srv *Server) serve() error {
	s := rpc.NewScanner(srv.in)
	for s.Scan() {
		srv.logger.Debug("received", "msg", s.Text())

		var msg rpc.Message
		if err := json.Unmarshal(s.Bytes(), &msg); err != nil {
			srv.logger.Error("failed to decode message", "error", err)
			if err := srv.write(rpc.ErrorResponse(nil, rpc.ParseError, "invalid JSON")); err != nil {
				return err
			}
			continue
		}

		err := srv.handle(msg)
		if errors.Is(err, errExit) {
			srv.logger.Debug("exit")
			return nil
		}
		if err != nil && !errors.Is(err, errSkip) {
			return err
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("failed to read message: %v", err)
	}
	return nil
}

// handle dispatches the message based on the state of the server. Only errors writing to the
// client are returned, all other errors are sent to the client or logged.
func (srv *Server) handle(msg rpc.Message) error {
	if msg.Method == "exit" {
		return errExit
	}

	switch srv.state {
	case uninitialized:
		if msg.Method == "initialize" {
			srv.state = initialized
			return srv.respond(msg, srv.initialize())
		}
		return srv.reject(msg, rpc.ServerNotInitialized, "server not initialized")
	case shuttingDown:
		return srv.reject(msg, rpc.InvalidRequest, "server is shutting down")
	}

	switch msg.Method {
	case "initialize":
		return srv.reject(msg, rpc.InvalidRequest, "server already initialized")
	case "initialized":
		return nil
	case "shutdown":
		srv.state = shuttingDown
		return srv.respond(msg, nil)
	case "textDocument/didOpen":
		var params rpc.DidOpenTextDocumentParams
		if err := srv.decode(msg, &params); err != nil {
			return err
		}
		doc := newDocument(params.TextDocument)
		srv.documents[doc.uri] = doc
		return srv.publishDiagnostics(doc)
	case "textDocument/didChange":
		var params rpc.DidChangeTextDocumentParams
		if err := srv.decode(msg, &params); err != nil {
			return err
		}
		doc, ok := srv.documents[params.TextDocument.URI]
		if !ok {
			srv.logger.Error("document is not open", "uri", params.TextDocument.URI)
			return nil
		}
		for _, change := range params.ContentChanges {
			if err := doc.change(change); err != nil {
				srv.logger.Error("failed to apply change", "uri", doc.uri, "error", err)
				return nil
			}
		}
		doc.version = params.TextDocument.Version
		return srv.publishDiagnostics(doc)
	case "textDocument/didClose":
		var params rpc.DidCloseTextDocumentParams
		if err := srv.decode(msg, &params); err != nil {
			return err
		}
		delete(srv.documents, params.TextDocument.URI)
		return nil
	case "textDocument/formatting":
		var params rpc.DocumentFormattingParams
		if err := srv.decode(msg, &params); err != nil {
			return err
		}
		doc, ok := srv.documents[params.TextDocument.URI]
		if !ok {
			return srv.reject(msg, rpc.InvalidParams, fmt.Sprintf("document is not open: %s", params.TextDocument.URI))
		}
		edits, err := srv.format(doc)
		if err != nil {
			return srv.reject(msg, rpc.InternalError, fmt.Sprintf("formatting failed: %v", err))
		}
		return srv.respond(msg, edits)
	}

	return srv.reject(msg, rpc.MethodNotFound, "method not found")
}

func (srv *Server) initialize() rpc.InitializeResult {
	return rpc.InitializeResult{
		Capabilities: rpc.ServerCapabilities{
			PositionEncoding:           rpc.PositionEncodingUTF32,
			TextDocumentSync:           rpc.SyncIncremental,
			DocumentFormattingProvider: true,
		},
		ServerInfo: &rpc.ServerInfo{
			Name:    serverName,
			Version: version.Version(),
		},
	}
}

// format returns a single edit replacing the document with its formatted code or no edits if it
// is well formatted.
func (srv *Server) format(doc *document) ([]rpc.TextEdit, error) {
	var buf bytes.Buffer
	opts := srv.opts
	opts.Fallback = false
	if err := printer.New(doc.src, &buf, opts).Print(); err != nil {
		return nil, err
	}
	if bytes.Equal(buf.Bytes(), doc.src) {
		return []rpc.TextEdit{}, nil
	}
	return []rpc.TextEdit{
		{
			Range:   rpc.Range{End: doc.end()},
			NewText: buf.String(),
		},
	}, nil
}

func (srv *Server) publishDiagnostics(doc *document) error {
	params := diagnostic.Compute(doc.src, doc.uri, doc.version)
	msg, err := rpc.Notification("textDocument/publishDiagnostics", params)
	if err != nil {
		srv.logger.Error("failed to create diagnostics", "uri", doc.uri, "error", err)
		return nil
	}
	return srv.write(msg)
}

// decode decodes the params of the message. Invalid params are rejected for requests and logged
// for notifications. The returned error is only non-nil if the rejection could not be written.
func (srv *Server) decode(msg rpc.Message, params any) error {
	var err error
	if msg.Params == nil {
		err = errors.New("missing params")
	} else {
		err = json.Unmarshal(*msg.Params, params)
	}
	if err == nil {
		return nil
	}

	if msg.IsNotification() {
		srv.logger.Error("invalid params", "method", msg.Method, "error", err)
		return errSkip
	}
	if werr := srv.reject(msg, rpc.InvalidParams, fmt.Sprintf("invalid params: %v", err)); werr != nil {
		return werr
	}
	return errSkip
}

// errSkip stops handling a message that has already been answered.
var errSkip = errors.New("skip")

func (srv *Server) respond(msg rpc.Message, result any) error {
	if msg.IsNotification() {
		return nil
	}
	response, err := rpc.Response(msg.ID, result)
	if err != nil {
		srv.logger.Error("failed to create response", "method", msg.Method, "error", err)
		response = rpc.ErrorResponse(msg.ID, rpc.InternalError, "failed to encode result")
	}
	return srv.write(response)
}

// reject responds with an error to requests. Notifications cannot be answered and are dropped.
func (srv *Server) reject(msg rpc.Message, code int64, message string) error {
	if msg.IsNotification() {
		srv.logger.Debug("dropped notification", "method", msg.Method, "reason", message)
		return nil
	}
	return srv.write(rpc.ErrorResponse(msg.ID, code, message))
}

func (srv *Server) write(msg rpc.Message) error {
	content, err := srv.out.Write(msg)
	if err != nil {
		return err
	}
	srv.logger.Debug("sent", "msg", string(content))
	return nil
}
