package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"autoctl/internal/bifdiag"
)

var showAll bool

// showCmd prints the labeled points of a diagram
var showCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print the labeled points of a diagram as a table",
	Long: `Prints BR, PT, TY and LAB of every labeled point of NAME followed by
the branch columns. With --all every branch point is printed. NAME "-"
shows the solver outputs.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

// diagCmd prints diagnostics
var diagCmd = &cobra.Command{
	Use:   "diag NAME [KEYWORD]",
	Short: "Print diagnostic lines, optionally only those containing KEYWORD",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := app.ws.Diagnostics(commandContext(cmd), operand(args[0]), optionalArg(args, 1))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, l := range lines {
			fmt.Fprintf(out, "%4d %5d  %s\n", l.Branch, l.Point, l.Text)
		}
		return nil
	},
}

// splabsCmd lists label numbers
var splabsCmd = &cobra.Command{
	Use:   "splabs NAME [TYPE]",
	Short: "List the label numbers of a diagram, optionally of one type",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, err := app.ws.SpecialLabels(commandContext(cmd), operand(args[0]), optionalArg(args, 1))
		if err != nil {
			return err
		}
		for _, id := range labels {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showAll, "all", false, "Print every branch point, not only labeled ones")
}

func runShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	if name == "-" {
		name = ""
	}
	d, err := app.ws.Load(commandContext(cmd), name)
	if err != nil {
		return err
	}
	renderDiagram(cmd.OutOrStdout(), d, showAll)
	return nil
}

// maxColumns bounds the branch columns shown per row.
const maxColumns = 4

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderDiagram writes one table per branch followed by a summary line.
func renderDiagram(w io.Writer, d *bifdiag.Diagram, all bool) {
	for _, b := range d.Branches {
		headers := []string{"BR", "PT", "TY", "LAB"}
		cols := b.Columns
		if len(cols) > maxColumns {
			cols = cols[:maxColumns]
		}
		headers = append(headers, cols...)

		var rows [][]string
		for _, p := range b.Points {
			if !all && !p.Label.Labeled() && !p.Label.Marker() {
				continue
			}
			row := []string{
				strconv.Itoa(p.Label.Branch),
				strconv.Itoa(p.Label.Point),
				p.Label.Type.String(),
				strconv.Itoa(p.Label.ID),
			}
			for i := range cols {
				if i < len(p.Columns) {
					row = append(row, strconv.FormatFloat(p.Columns[i].Value, 'g', 8, 64))
				} else {
					row = append(row, "")
				}
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			continue
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		fmt.Fprintln(w, t.Render())
	}
	fmt.Fprintln(w, summary(d))
}

// summary describes the size of a diagram in one line.
func summary(d *bifdiag.Diagram) string {
	if d == nil {
		return "empty diagram"
	}
	return fmt.Sprintf("%d branches, %d points, %d labeled solutions", d.Len(), d.Points(), len(d.Solutions))
}
