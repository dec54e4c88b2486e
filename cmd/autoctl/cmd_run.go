package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"autoctl/internal/autofile"
	"autoctl/internal/runner"
)

// runCmd runs the solver with the default runner
var runCmd = &cobra.Command{
	Use:   "run [NAME] [key=value...]",
	Short: "Run the solver, starting from a named artifact set",
	Long: `Runs the continuation solver. NAME fills the equation, constants,
solution and homcont roles that the options leave unset. With sv=NAME the
outputs are saved as b.NAME, s.NAME and d.NAME; with ap=NAME they are
appended to that set.

Examples:
  autoctl run ab
  autoctl run ab IRS=3 ICP=[1] sv=ab2
  autoctl run e=ab c=ab.1 s=ab ap=ab`,
	RunE: runSolver,
}

// loadCmd configures the default runner without running it
var loadCmd = &cobra.Command{
	Use:   "load [NAME] [key=value...]",
	Short: "Show the configuration a run would use",
	RunE:  runLoad,
}

// splitStart separates a leading artifact name from key=value options.
func splitStart(args []string) (runner.Start, runner.Options, error) {
	start := runner.StartNone()
	if len(args) > 0 && !strings.Contains(args[0], "=") {
		start = runner.StartName(args[0])
		args = args[1:]
	}
	opts, err := runner.ParseOptions(args)
	return start, opts, err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSolver(cmd *cobra.Command, args []string) error {
	start, opts, err := splitStart(args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := app.runner.Run(ctx, start, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s finished in %s: %s\n",
		shortID(res.ID.String()), res.Duration.Round(time.Millisecond), summary(res.Diagram))
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	start, opts, err := splitStart(args)
	if err != nil {
		return err
	}
	sol, err := app.runner.Load(start, opts)
	if err != nil {
		return err
	}
	cfg := app.runner.Config()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "equation: %s\n", orNone(cfg.Equation))
	if sol.Label.Labeled() {
		fmt.Fprintf(out, "start:    %s\n", sol.Label)
	} else {
		fmt.Fprintln(out, "start:    none")
	}
	if err := autofile.EncodeConstants(out, sol.Constants); err != nil {
		return err
	}
	if cfg.HomCont.Len() > 0 {
		fmt.Fprintln(out, "homcont:")
		return autofile.EncodeConstants(out, cfg.HomCont)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
