// Package diagnostic provides parse error diagnostics for Vyper files.
package diagnostic

import (
	"github.com/teleivo/vyper"
	"github.com/teleivo/vyper/lsp/internal/rpc"
)

const source = "vyfmt"

// Compute returns diagnostics for parse errors in the given source.
func Compute(src []byte, uri rpc.DocumentURI, version int32) rpc.PublishDiagnosticsParams {
	ps := vyper.NewParser(src)
	ps.Parse()

	params := rpc.PublishDiagnosticsParams{
		URI:     uri,
		Version: &version,
	}
	sev := rpc.SeverityError
	errs := ps.Errors()
	params.Diagnostics = make([]rpc.Diagnostic, len(errs))
	for i, err := range errs {
		pos := position(err)
		params.Diagnostics[i] = rpc.Diagnostic{
			Range:    rpc.Range{Start: pos, End: pos},
			Severity: &sev,
			Source:   source,
			Message:  err.Msg,
		}
	}

	return params
}

func position(err vyper.Error) rpc.Position {
	var pos rpc.Position
	if err.Pos.Line > 0 {
		pos.Line = uint32(err.Pos.Line) - 1
	}
	if err.Pos.Column > 0 {
		pos.Character = uint32(err.Pos.Column) - 1
	}
	return pos
}
