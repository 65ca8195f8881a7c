package diagnostic

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/teleivo/vyper/lsp/internal/rpc"
)

func TestCompute(t *testing.T) {
	sev := rpc.SeverityError
	tests := map[string]struct {
		in   string
		want []rpc.Diagnostic
	}{
		"Valid": {
			in:   "x: uint256 = 1\n",
			want: []rpc.Diagnostic{},
		},
		"MismatchedBracket": {
			in: "f(1]\n",
			want: []rpc.Diagnostic{
				{
					Range:    rpc.Range{Start: rpc.Position{Line: 0, Character: 3}, End: rpc.Position{Line: 0, Character: 3}},
					Severity: &sev,
					Source:   "vyfmt",
					Message:  "unexpected token ']', expected )",
				},
				{
					Range:    rpc.Range{Start: rpc.Position{Line: 0, Character: 1}, End: rpc.Position{Line: 0, Character: 1}},
					Severity: &sev,
					Source:   "vyfmt",
					Message:  "'(' was never closed",
				},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := Compute([]byte(test.in), "file:///token.vy", 3)

			if got.URI != "file:///token.vy" || got.Version == nil || *got.Version != 3 {
				t.Errorf("Compute(%q) = %s version %v, want file:///token.vy version 3", test.in, got.URI, got.Version)
			}
			if diff := cmp.Diff(test.want, got.Diagnostics); diff != "" {
				t.Errorf("Compute(%q) mismatch (-want +got):\n%s", test.in, diff)
			}
		})
	}
}
