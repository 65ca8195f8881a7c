package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Exit codes of a formatting run.
const (
	ExitOK      = 0
	ExitChanged = 1
	ExitError   = 123
)

// ReportOptions configure what a [Report] writes.
type ReportOptions struct {
	// Check words messages as what would happen.
	Check bool
	// Quiet only writes errors.
	Quiet bool
	// Verbose also writes files that are left unchanged.
	Verbose bool
	// Color colors the summary and diffs.
	Color bool
}

// Report collects the results of formatting files. Diffs go to out while messages about files
// go to log.
type Report struct {
	out, log  io.Writer
	opts      ReportOptions
	changed   int
	unchanged int
	failed    int
	bold      *color.Color
	blue      *color.Color
	red       *color.Color
}

// NewReport creates a report.
func NewReport(out, log io.Writer, opts ReportOptions) *Report {
	r := &Report{
		out:  out,
		log:  log,
		opts: opts,
		bold: color.New(color.Bold),
		blue: color.New(color.FgBlue, color.Bold),
		red:  color.New(color.FgRed),
	}
	for _, c := range []*color.Color{r.bold, r.blue, r.red} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Add records the result of formatting a file.
func (r *Report) Add(res Result) error {
	switch res.Status {
	case Failed:
		r.failed++
		_, err := fmt.Fprintf(r.log, "%s\n", r.red.Sprintf("error: cannot format %s: %v", res.Path, res.Err))
		return err
	case Changed:
		r.changed++
		if res.Diff != "" {
			if err := writeDiff(r.out, res.Diff, r.opts.Color); err != nil {
				return err
			}
		}
		if r.opts.Quiet {
			return nil
		}
		verb := "reformatted"
		if r.opts.Check || res.Diff != "" {
			verb = "would reformat"
		}
		_, err := fmt.Fprintf(r.log, "%s\n", r.bold.Sprintf("%s %s", verb, res.Path))
		return err
	default:
		r.unchanged++
		if !r.opts.Verbose || r.opts.Quiet {
			return nil
		}
		msg := "%s already well formatted, good job.\n"
		if res.Cached {
			msg = "%s wasn't modified on disk since last run.\n"
		}
		_, err := fmt.Fprintf(r.log, msg, res.Path)
		return err
	}
}

// Summary writes the number of changed, unchanged and failed files.
func (r *Report) Summary() error {
	if r.opts.Quiet {
		return nil
	}
	done := "All done! ✨ 🍰 ✨"
	if r.failed > 0 {
		done = "Oh no! 💥 💔 💥"
	}
	_, err := fmt.Fprintf(r.log, "%s\n%s\n", r.bold.Sprint(done), r.String())
	return err
}

// String returns the summary of the report like "1 file reformatted, 2 files left unchanged."
func (r *Report) String() string {
	reformatted, unchanged, failed := "reformatted", "left unchanged", "failed to reformat"
	if r.opts.Check {
		reformatted, unchanged, failed = "would be reformatted", "would be left unchanged", "would fail to reformat"
	}

	var parts []string
	if r.changed > 0 {
		parts = append(parts, r.blue.Sprintf("%s %s", files(r.changed), reformatted))
	}
	if r.unchanged > 0 {
		parts = append(parts, fmt.Sprintf("%s %s", files(r.unchanged), unchanged))
	}
	if r.failed > 0 {
		parts = append(parts, r.red.Sprintf("%s %s", files(r.failed), failed))
	}
	if len(parts) == 0 {
		return "No files to format."
	}
	return strings.Join(parts, ", ") + "."
}

func files(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}

// ExitCode returns [ExitError] if any file failed, [ExitChanged] if any file changed or would
// change and [ExitOK] otherwise.
func (r *Report) ExitCode() int {
	switch {
	case r.failed > 0:
		return ExitError
	case r.changed > 0:
		return ExitChanged
	}
	return ExitOK
}
