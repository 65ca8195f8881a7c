package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teleivo/vyper"
	"github.com/teleivo/vyper/internal/layout"
	"github.com/teleivo/vyper/printer"
	"github.com/teleivo/vyper/token"
)

func (a *app) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect how vyfmt sees Vyper code",
		Long: `Inspect the tokens, the syntax tree or the line splits of Vyper code.

Each subcommand reads the file given as argument or stdin if there is none.`,
	}
	cmd.AddCommand(a.inspectTokensCmd(), a.inspectTreeCmd(), a.inspectLinesCmd())
	return cmd
}

func (a *app) inspectTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the tokens of Vyper code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.source(args)
			if err != nil {
				return err
			}
			return a.profile(cmd, func() (err error) {
				tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				defer func() {
					if ferr := tw.Flush(); ferr != nil && err == nil {
						err = fmt.Errorf("error flushing output: %v", ferr)
					}
				}()

				_, _ = fmt.Fprintf(tw, "POSITION\tTYPE\tLITERAL\tERROR\n")
				sc := vyper.NewScanner(src)
				for tok := sc.Next(); tok.Kind != token.EOF; tok = sc.Next() {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tokenPosition(tok), tok.Kind, tokenLiteral(tok), tok.Error)
				}
				return nil
			})
		},
	}
}

func (a *app) inspectTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Print the concrete syntax tree of Vyper code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			ft, err := vyper.NewFormat(name)
			if err != nil {
				return fmt.Errorf("failed to convert --format=%q: %v", name, err)
			}
			src, err := a.source(args)
			if err != nil {
				return err
			}

			return a.profile(cmd, func() error {
				p := vyper.NewParser(src)
				t := p.Parse()
				for _, parseErr := range p.Errors() {
					_, _ = fmt.Fprintln(a.err, parseErr)
				}
				if err := t.Render(a.out, ft); err != nil {
					return fmt.Errorf("error rendering tree: %v", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("format", "default", "print the tree using its 'default' indented representation, or using 'scheme' for a scheme like tree with positions")
	return cmd
}

func (a *app) inspectLinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lines [file]",
		Short: "Print the split strategies chosen for every logical line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := cmd.Flags().GetInt("line-length")
			if err != nil {
				return err
			}
			src, err := a.source(args)
			if err != nil {
				return err
			}

			return a.profile(cmd, func() error {
				p := printer.New(src, a.out, printer.Options{MaxWidth: width, Format: layout.Layout})
				return p.Print()
			})
		},
	}
	cmd.Flags().IntP("line-length", "l", 80, "number of columns lines should fit into")
	return cmd
}

// source reads the file in args or stdin if args is empty or "-".
func (a *app) source(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		src, err := io.ReadAll(a.in)
		if err != nil {
			return nil, fmt.Errorf("error reading stdin: %v", err)
		}
		return src, nil
	}
	return os.ReadFile(args[0])
}

func tokenPosition(tok token.Token) string {
	if tok.Start == tok.End {
		return tok.Start.String()
	}
	return tok.Start.String() + "-" + tok.End.String()
}

func tokenLiteral(tok token.Token) string {
	switch tok.Kind {
	case token.Indent, token.Dedent, token.Newline:
		return strconv.Quote(tok.Literal)
	}
	return tok.String()
}
