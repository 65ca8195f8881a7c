package format

import (
	"bytes"
	"errors"
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"
)

func TestReport(t *testing.T) {
	tests := map[string]struct {
		opts     ReportOptions
		results  []Result
		wantLog  string
		wantOut  string
		wantExit int
	}{
		"NoFiles": {
			wantLog:  "All done! ✨ 🍰 ✨\nNo files to format.\n",
			wantExit: ExitOK,
		},
		"Unchanged": {
			results: []Result{
				{Path: "a.vy", Status: Unchanged},
				{Path: "b.vy", Status: Unchanged},
			},
			wantLog:  "All done! ✨ 🍰 ✨\n2 files left unchanged.\n",
			wantExit: ExitOK,
		},
		"Reformatted": {
			results: []Result{
				{Path: "a.vy", Status: Changed},
				{Path: "b.vy", Status: Unchanged},
			},
			wantLog:  "reformatted a.vy\nAll done! ✨ 🍰 ✨\n1 file reformatted, 1 file left unchanged.\n",
			wantExit: ExitChanged,
		},
		"Check": {
			opts: ReportOptions{Check: true},
			results: []Result{
				{Path: "a.vy", Status: Changed},
				{Path: "b.vy", Status: Changed},
				{Path: "c.vy", Status: Unchanged},
			},
			wantLog: "would reformat a.vy\nwould reformat b.vy\nAll done! ✨ 🍰 ✨\n" +
				"2 files would be reformatted, 1 file would be left unchanged.\n",
			wantExit: ExitChanged,
		},
		"Failed": {
			results: []Result{
				{Path: "a.vy", Status: Changed},
				{Path: "b.vy", Status: Failed, Err: errors.New("1:5: '(' was never closed")},
			},
			wantLog: "reformatted a.vy\nerror: cannot format b.vy: 1:5: '(' was never closed\nOh no! 💥 💔 💥\n" +
				"1 file reformatted, 1 file failed to reformat.\n",
			wantExit: ExitError,
		},
		"QuietOnlyWritesErrors": {
			opts: ReportOptions{Quiet: true},
			results: []Result{
				{Path: "a.vy", Status: Changed},
				{Path: "b.vy", Status: Failed, Err: errors.New("boom")},
			},
			wantLog:  "error: cannot format b.vy: boom\n",
			wantExit: ExitError,
		},
		"VerboseWritesUnchangedFiles": {
			opts: ReportOptions{Verbose: true},
			results: []Result{
				{Path: "a.vy", Status: Unchanged},
				{Path: "b.vy", Status: Unchanged, Cached: true},
			},
			wantLog: "a.vy already well formatted, good job.\nb.vy wasn't modified on disk since last run.\n" +
				"All done! ✨ 🍰 ✨\n2 files left unchanged.\n",
			wantExit: ExitOK,
		},
		"DiffGoesToOut": {
			results: []Result{
				{Path: "a.vy", Status: Changed, Diff: "-x=1\n+x = 1\n"},
			},
			wantOut:  "-x=1\n+x = 1\n",
			wantLog:  "would reformat a.vy\nAll done! ✨ 🍰 ✨\n1 file reformatted.\n",
			wantExit: ExitChanged,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var out, log bytes.Buffer
			r := NewReport(&out, &log, test.opts)

			for _, res := range test.results {
				require.NoErrorf(t, r.Add(res), "Add(%v)", res)
			}
			require.NoErrorf(t, r.Summary(), "Summary()")

			assert.EqualValuesf(t, log.String(), test.wantLog, "log of %v", test.results)
			assert.EqualValuesf(t, out.String(), test.wantOut, "out of %v", test.results)
			assert.EqualValuesf(t, r.ExitCode(), test.wantExit, "ExitCode() of %v", test.results)
		})
	}
}
