package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"autoctl/internal/bifdiag"
	"autoctl/internal/compose"
)

// relabelCmd renumbers labels of a stored diagram
var relabelCmd = &cobra.Command{
	Use:   "relabel NAME [OUT]",
	Short: "Renumber the labels of a diagram 1..n",
	Long: `Renumbers every labeled point of NAME in continuation order. Without
OUT the b. and s. files are rewritten in place keeping "~" backups.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := app.ws.Relabel(commandContext(cmd), compose.Named(args[0]), optionalArg(args, 1))
		return err
	},
}

// mergeCmd joins branches that continue one another
var mergeCmd = &cobra.Command{
	Use:   "merge NAME [OUT]",
	Short: "Join branches of a diagram that trace one curve",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := app.ws.Merge(commandContext(cmd), compose.Named(args[0]), optionalArg(args, 1))
		return err
	},
}

var (
	subtractColumn string
	subtractBranch int
	subtractPoint  int
)

// subtractCmd subtracts a reference branch
var subtractCmd = &cobra.Command{
	Use:   "subtract NAME REF",
	Short: "Subtract a reference branch from every branch of a diagram",
	Long: `Interpolates branch --branch of REF along --column, starting at
--point, and subtracts it from every branch of NAME. Only b.NAME is
rewritten; the previous file is kept as b.NAME~.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := app.ws.Subtract(commandContext(cmd), compose.Named(args[0]), compose.Named(args[1]),
			subtractColumn, subtractBranch, subtractPoint)
		return err
	},
}

// appendCmd appends one artifact set onto another
var appendCmd = &cobra.Command{
	Use:   "append SRC DST",
	Short: "Append the b., s. and d. files of SRC onto DST",
	Long: `Appends the files of SRC onto DST. Use "-" as SRC for the solver
outputs fort.7, fort.8 and fort.9.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := app.ws.Append(commandContext(cmd), operand(args[0]), compose.Named(args[1]))
		return err
	},
}

// saveCmd copies an artifact set
var saveCmd = &cobra.Command{
	Use:   "save SRC DST",
	Short: "Save the files of SRC as DST",
	Long: `Copies b., s. and d. files of SRC to DST, keeping "~" backups of
files that are replaced. Use "-" as SRC for the solver outputs.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.ws.Save(commandContext(cmd), operand(args[0]), args[1])
	},
}

var dspCmd = newFilterCmd("dsp", "Delete special points and their type marks", func(w *compose.Workspace) filterFunc { return w.DeleteSpecialPoints })
var kspCmd = newFilterCmd("ksp", "Keep only the selected special points, dropping other type marks", func(w *compose.Workspace) filterFunc { return w.KeepSpecialPoints })
var dlbCmd = newFilterCmd("dlb", "Delete labels, keeping their type marks", func(w *compose.Workspace) filterFunc { return w.DeleteLabels })
var klbCmd = newFilterCmd("klb", "Keep only the selected labels, keeping type marks of the rest", func(w *compose.Workspace) filterFunc { return w.KeepLabels })

func init() {
	subtractCmd.Flags().StringVar(&subtractColumn, "column", "PAR(1)", "Column to interpolate along")
	subtractCmd.Flags().IntVar(&subtractBranch, "branch", 1, "Reference branch (1-based)")
	subtractCmd.Flags().IntVar(&subtractPoint, "point", 1, "First reference point (1-based)")
}

type filterFunc = func(ctx context.Context, o compose.Operand, sel compose.Selector) (*bifdiag.Diagram, error)

// newFilterCmd builds one of the label filter commands. Selectors are
// label numbers or type names; none selects every special type.
func newFilterCmd(use, short string, pick func(*compose.Workspace) filterFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME [LABEL|TYPE...]",
		Short: short,
		Long: short + `. NAME "-" edits fort.7 and fort.8. Selectors are label
numbers or type names (BP, LP, HB, UZ, PD, TR, EP, MX); without selectors
every special type except UZ is selected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseSelector(args[1:])
			if err != nil {
				return err
			}
			_, err = pick(app.ws)(commandContext(cmd), operand(args[0]), sel)
			return err
		},
	}
}

// parseSelector reads label numbers and type names.
func parseSelector(args []string) (compose.Selector, error) {
	var sel compose.Selector
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, err := strconv.Atoi(part); err == nil {
				sel.IDs = append(sel.IDs, id)
				continue
			}
			if _, err := bifdiag.ParseTypeName(part); err != nil {
				return sel, fmt.Errorf("selector %q: %w", part, err)
			}
			sel.Types = append(sel.Types, strings.ToUpper(part))
		}
	}
	return sel, nil
}

// operand maps "-" to the solver outputs.
func operand(name string) compose.Operand {
	if name == "-" {
		return compose.Outputs()
	}
	return compose.Named(name)
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// commandContext returns the command's context, or Background for a
// command that was never executed through cobra.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
