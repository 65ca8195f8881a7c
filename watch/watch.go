// Package watch provides a file watcher that formats Vyper files whenever they change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/teleivo/vyper/internal/format"
)

// Config configures a Watcher.
type Config struct {
	Files    []string       // Vyper files to format
	Interval time.Duration  // Interval between checks for changes. Defaults to 500ms.
	Options  format.Options // Options to format the files with. Check and diff mode are ignored.
	Stdout   io.Writer      // output for status messages
	Logger   *slog.Logger   // Logger for errors and debug messages. Logs are discarded if nil.
}

// Watcher polls Vyper files for changes of their modification time or size and formats them in
// place.
type Watcher struct {
	files    []string
	interval time.Duration
	opts     format.Options
	stdout   io.Writer
	logger   *slog.Logger
	seen     map[string]stat
}

type stat struct {
	modTime time.Time
	size    int64
}

const defaultInterval = 500 * time.Millisecond

// New creates a Watcher for the given files. The current state of the files is taken as already
// formatted.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Files) == 0 {
		return nil, errors.New("no files to watch")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := cfg.Options
	opts.Check, opts.Diff = false, false

	wa := &Watcher{
		files:    cfg.Files,
		interval: interval,
		opts:     opts,
		stdout:   stdout,
		logger:   logger,
		seen:     make(map[string]stat, len(cfg.Files)),
	}
	for _, file := range cfg.Files {
		fi, err := os.Stat(file)
		if err != nil {
			return nil, fmt.Errorf("file error: %v", err)
		}
		wa.seen[file] = stat{modTime: fi.ModTime(), size: fi.Size()}
	}
	return wa, nil
}

// Watch polls the files until the context is cancelled.
func (wa *Watcher) Watch(ctx context.Context) error {
	_, _ = fmt.Fprintf(wa.stdout, "watching %d file(s) for changes\n", len(wa.files))

	pollTicker := time.NewTicker(wa.interval)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wa.logger.Debug("stopped watching")
			return nil
		case <-pollTicker.C:
			wa.poll()
		}
	}
}

// poll formats the files that changed since the last poll and returns their results.
func (wa *Watcher) poll() []format.Result {
	var results []format.Result
	for _, file := range wa.files {
		fi, err := os.Stat(file)
		if err != nil {
			wa.logger.Error("stat failed", "file", file, "error", err)
			continue
		}
		last := wa.seen[file]
		if fi.ModTime().Equal(last.modTime) && fi.Size() == last.size {
			continue
		}
		wa.logger.Debug("change detected", "file", file, "modtime", fi.ModTime(), "size", fi.Size())

		res := format.File(file, wa.opts)
		results = append(results, res)
		switch res.Status {
		case format.Failed:
			wa.logger.Error("failed to format", "file", file, "error", res.Err)
		case format.Changed:
			_, _ = fmt.Fprintf(wa.stdout, "reformatted %s\n", file)
		default:
			wa.logger.Debug("already well formatted", "file", file)
		}

		// remember the state after formatting so our own write does not count as a change
		if fi, err := os.Stat(file); err == nil {
			wa.seen[file] = stat{modTime: fi.ModTime(), size: fi.Size()}
		}
	}
	return results
}
