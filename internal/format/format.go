// Package format provides file and directory formatting for Vyper files.
package format

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/teleivo/vyper/printer"
)

// Options configure how files are formatted.
type Options struct {
	// Printer configures the formatting of a single file.
	Printer printer.Options
	// Check only reports whether files would change without writing them.
	Check bool
	// Diff computes a unified diff of the changes without writing them.
	Diff bool
	// Jobs is the number of files formatted in parallel. Defaults to the number of CPUs.
	Jobs int
	// Cache skips files that were well formatted when last seen. A nil cache is never consulted.
	Cache *Cache
}

// Status is the outcome of formatting a file.
type Status int

const (
	// Unchanged files are well formatted.
	Unchanged Status = iota
	// Changed files were reformatted or would be reformatted in check or diff mode.
	Changed
	// Failed files could not be formatted and are left untouched.
	Failed
)

func (s Status) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case Failed:
		return "failed"
	}
	panic(fmt.Errorf("unknown status %d", int(s)))
}

// Result is the outcome of formatting a file.
type Result struct {
	Path   string
	Status Status
	// Err is the reason a file failed to format.
	Err error
	// Cached is true for unchanged files that were skipped because of the cache.
	Cached bool
	// Diff is the unified diff of the changes in diff mode.
	Diff string
}

// Reader formats Vyper source from r and writes the result to w. In check mode nothing is
// written, in diff mode the diff is written instead of the formatted source.
func Reader(r io.Reader, w io.Writer, opts Options) Result {
	res := Result{Path: "-"}
	src, err := io.ReadAll(r)
	if err != nil {
		res.Status, res.Err = Failed, fmt.Errorf("error reading input: %v", err)
		return res
	}

	var out bytes.Buffer
	if err := printer.New(src, &out, opts.Printer).Print(); err != nil {
		res.Status, res.Err = Failed, err
		if opts.Printer.Fallback && !opts.Check && !opts.Diff {
			// the printer fell back to the source
			_, _ = w.Write(out.Bytes())
		}
		return res
	}
	if !bytes.Equal(src, out.Bytes()) {
		res.Status = Changed
	}

	switch {
	case opts.Check:
		return res
	case opts.Diff:
		if res.Status == Changed {
			res.Diff, err = unifiedDiff("STDIN", src, out.Bytes())
			if err == nil {
				_, err = io.WriteString(w, res.Diff)
			}
		}
	default:
		_, err = w.Write(out.Bytes())
	}
	if err != nil {
		res.Status, res.Err = Failed, fmt.Errorf("error writing output: %v", err)
	}
	return res
}

// Run formats the files in parallel. Failing files do not stop the others from being formatted.
// Files not formatted because ctx is done are reported as failed.
func Run(ctx context.Context, files []string, opts Options) []Result {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]Result, len(files))
	if len(files) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = Result{Path: path, Status: Failed, Err: gctx.Err()}
				return nil
			default:
			}
			results[i] = File(path, opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// File formats a single Vyper file in-place. The file is replaced atomically and only if it
// changed.
func File(path string, opts Options) Result {
	res := Result{Path: path}
	fi, err := os.Stat(path)
	if err != nil {
		res.Status, res.Err = Failed, fmt.Errorf("failed to open file: %v", err)
		return res
	}
	if opts.Cache.Fresh(path, fi) {
		res.Cached = true
		return res
	}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Status, res.Err = Failed, fmt.Errorf("error reading file: %v", err)
		return res
	}

	var out bytes.Buffer
	printerOpts := opts.Printer
	printerOpts.Fallback = false
	if err := printer.New(src, &out, printerOpts).Print(); err != nil {
		res.Status, res.Err = Failed, err
		return res
	}

	if bytes.Equal(src, out.Bytes()) {
		opts.Cache.Add(path, fi)
		return res
	}
	res.Status = Changed

	switch {
	case opts.Check:
	case opts.Diff:
		res.Diff, err = unifiedDiff(path, src, out.Bytes())
		if err != nil {
			res.Status, res.Err = Failed, err
		}
	default:
		if err := writeFile(path, fi.Mode().Perm(), out.Bytes()); err != nil {
			res.Status, res.Err = Failed, err
			return res
		}
		if fi, err := os.Stat(path); err == nil {
			opts.Cache.Add(path, fi)
		}
	}
	return res
}

// writeFile replaces the file at path with data by writing to a temporary file in the same
// directory and renaming it.
func writeFile(path string, perm os.FileMode, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for atomic rename: %v", err)
	}

	var success bool
	tmpPath := tmp.Name()
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if perm != 0o600 {
		if err := tmp.Chmod(perm); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to set file mode: %v", err)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %v", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %v", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %v", err)
	}

	success = true
	return nil
}
