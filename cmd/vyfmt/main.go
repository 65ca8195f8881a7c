// Command vyfmt formats Vyper source code.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/teleivo/vyper/internal/config"
	"github.com/teleivo/vyper/internal/format"
	"github.com/teleivo/vyper/internal/version"
	"github.com/teleivo/vyper/lsp"
	"github.com/teleivo/vyper/printer"
	"github.com/teleivo/vyper/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes vyfmt with args and returns the exit code.
func run(ctx context.Context, args []string, r io.Reader, w io.Writer, wErr io.Writer) int {
	a := &app{in: r, out: w, err: wErr, logger: slog.New(slog.DiscardHandler)}
	cmd := a.rootCmd()
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	cmd.SetArgs(args)
	cmd.SetIn(r)
	cmd.SetOut(w)
	cmd.SetErr(wErr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(wErr, "error: %v\n", err)
		return format.ExitError
	}
	return a.code
}

// app holds the streams and state shared by the commands.
type app struct {
	in     io.Reader
	out    io.Writer
	err    io.Writer
	logger *slog.Logger
	color  bool
	code   int
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vyfmt [flags] [path...]",
		Short: "Format Vyper source code",
		Long: `vyfmt formats Vyper source code in place.

Directories are searched for .vy and .vyi files. Without a path or with '-' the code is read
from stdin and written to stdout. Exits with 0 if nothing changed, 1 if files changed or would
change and 123 on errors.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runFormat,
	}

	flags := cmd.Flags()
	flags.IntP("line-length", "l", 80, "number of columns lines should fit into")
	flags.Bool("safe", true, "check that the formatted code is equivalent to the source")
	flags.Bool("check", false, "do not write files, exit with 1 if any file would be reformatted")
	flags.Bool("diff", false, "do not write files, print a diff of the changes instead")
	flags.IntP("jobs", "j", 0, "number of files formatted in parallel (default number of CPUs)")
	flags.Bool("no-cache", false, "format files even if they did not change since the last run")
	flags.StringSlice("exclude", nil, "glob `patterns` of file and directory names to skip")
	flags.String("config", "", "read the configuration from `file` instead of the closest vyfmt.toml")

	persistent := cmd.PersistentFlags()
	persistent.BoolP("quiet", "q", false, "only report errors")
	persistent.BoolP("verbose", "v", false, "also report unchanged files and log debug messages")
	persistent.String("color", "auto", "colorize output (auto|always|never)")
	persistent.String("cpuprofile", "", "write cpu profile to `file`")
	persistent.String("memprofile", "", "write memory profile to `file`")

	cmd.AddCommand(a.inspectCmd(), a.lspCmd(), a.watchCmd(), a.versionCmd())
	return cmd
}

// setup configures colors and logging from the persistent flags.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return err
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return err
	}
	mode, err := flags.GetString("color")
	if err != nil {
		return err
	}
	a.color, err = colorEnabled(mode, a.err)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	a.logger = slog.New(tint.NewHandler(a.err, &tint.Options{
		Level:      level,
		NoColor:    !a.color,
		TimeFormat: time.TimeOnly,
	}))
	return nil
}

func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	}
	return false, fmt.Errorf("invalid --color %q, must be one of auto, always or never", mode)
}

func (a *app) runFormat(cmd *cobra.Command, args []string) error {
	cfg, err := a.config(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	check, _ := flags.GetBool("check")
	diff, _ := flags.GetBool("diff")
	quiet, _ := flags.GetBool("quiet")
	verbose, _ := flags.GetBool("verbose")
	noCache, _ := flags.GetBool("no-cache")

	opts := format.Options{
		Printer: printer.Options{MaxWidth: cfg.LineLength, Safe: cfg.Safe},
		Check:   check,
		Diff:    diff,
		Jobs:    cfg.Jobs,
	}
	report := format.NewReport(a.out, a.err, format.ReportOptions{
		Check:   check || diff,
		Quiet:   quiet,
		Verbose: verbose,
		Color:   a.color,
	})

	return a.profile(cmd, func() error {
		if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
			opts.Printer.Fallback = true
			res := format.Reader(a.in, a.out, opts)
			res.Diff = "" // already written by the reader
			if err := report.Add(res); err != nil {
				return err
			}
			a.code = report.ExitCode()
			return nil
		}

		files, err := format.Discover(args, cfg.Exclude, cfg.Extensions)
		if err != nil {
			return err
		}
		a.logger.Debug("discovered files", "count", len(files), "config", cfg.Path)

		if cfg.Cache && !noCache {
			cache, err := format.OpenCache(opts.Printer, version.Version())
			if err != nil {
				a.logger.Warn("not using the cache", "error", err)
			} else {
				opts.Cache = cache
			}
		}

		for _, res := range format.Run(cmd.Context(), files, opts) {
			if err := report.Add(res); err != nil {
				return err
			}
		}
		if err := opts.Cache.Save(); err != nil {
			a.logger.Warn("failed to save the cache", "error", err)
		}
		if err := report.Summary(); err != nil {
			return err
		}
		a.code = report.ExitCode()
		return nil
	})
}

// config loads the configuration file and applies the flags that were set on top of it.
func (a *app) config(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("line-length") {
		cfg.LineLength, _ = flags.GetInt("line-length")
		if cfg.LineLength <= 0 {
			return config.Config{}, fmt.Errorf("invalid --line-length %d, must be positive", cfg.LineLength)
		}
	}
	if flags.Changed("safe") {
		cfg.Safe, _ = flags.GetBool("safe")
	}
	if flags.Changed("jobs") {
		cfg.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("exclude") {
		exclude, _ := flags.GetStringSlice("exclude")
		cfg.Exclude = append(cfg.Exclude, exclude...)
	}
	return cfg, nil
}

// profile runs fn writing a cpu and memory profile if the flags ask for it.
func (a *app) profile(cmd *cobra.Command, fn func() error) error {
	cpuProfile, err := cmd.Flags().GetString("cpuprofile")
	if err != nil {
		return err
	}
	memProfile, err := cmd.Flags().GetString("memprofile")
	if err != nil {
		return err
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %v", err)
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	err = fn()
	if err != nil {
		return err
	}

	if memProfile != "" {
		f, err := os.Create(memProfile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %v", err)
		}
		defer func() { _ = f.Close() }()
		runtime.GC() // materialize all statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("could not write memory profile: %v", err)
		}
	}

	return nil
}

func (a *app) lspCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Run the Vyper language server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Discover(".")
			if err != nil {
				return err
			}
			srv, err := lsp.New(lsp.Config{
				In:      a.in,
				Out:     a.out,
				Logger:  a.logger,
				Options: printer.Options{MaxWidth: cfg.LineLength, Safe: cfg.Safe},
			})
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch file...",
		Short: "Format Vyper files whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Discover(".")
			if err != nil {
				return err
			}
			interval, err := cmd.Flags().GetDuration("interval")
			if err != nil {
				return err
			}
			wa, err := watch.New(watch.Config{
				Files:    args,
				Interval: interval,
				Options: format.Options{
					Printer: printer.Options{MaxWidth: cfg.LineLength, Safe: cfg.Safe},
				},
				Stdout: a.out,
				Logger: a.logger,
			})
			if err != nil {
				return err
			}
			err = wa.Watch(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Duration("interval", 500*time.Millisecond, "interval between checks for changes")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.out, "vyfmt %s\n", version.Version())
			return err
		},
	}
}
