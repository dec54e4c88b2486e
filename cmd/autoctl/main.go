// Command autoctl drives the AUTO continuation solver and manipulates the
// bifurcation diagrams it produces.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"autoctl/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// app is built by PersistentPreRunE for every command.
	app *application
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "autoctl",
	Short: "Run AUTO continuations and compose bifurcation diagrams",
	Long: `autoctl runs the AUTO continuation solver against named artifact sets
(c.NAME, b.NAME, s.NAME, d.NAME, h.NAME) and edits the resulting
bifurcation diagrams: relabel, merge, subtract, filter labels, append and save.

Run options are key=value pairs. e=, c=, s= and h= name the equation,
constants, solution and homcont files; sv= saves the run and ap= appends
it to an existing set. Every other key sets an AUTO constant, for example
  autoctl run ab IRS=3 ICP=[1,2] sv=ab2`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		app = a
		app.bind(cmd)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: <workspace>/autoctl.yaml)")

	rootCmd.AddCommand(runCmd, loadCmd)
	rootCmd.AddCommand(relabelCmd, mergeCmd, subtractCmd, appendCmd, saveCmd)
	rootCmd.AddCommand(dspCmd, kspCmd, dlbCmd, klbCmd)
	rootCmd.AddCommand(showCmd, diagCmd, splabsCmd)
	rootCmd.AddCommand(historyCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
