package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd lists recent runs from the run history
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent solver runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if app.runs == nil {
		fmt.Fprintln(out, "Run history is disabled.")
		return nil
	}
	runs, err := app.runs.Recent(commandContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "failed: " + r.Error
		}
		target := ""
		switch {
		case r.SavedAs != "" && r.AppendedTo != "":
			target = fmt.Sprintf(" sv=%s ap=%s", r.SavedAs, r.AppendedTo)
		case r.SavedAs != "":
			target = " sv=" + r.SavedAs
		case r.AppendedTo != "":
			target = " ap=" + r.AppendedTo
		}
		usage := ""
		if r.MaxRSSBytes > 0 {
			usage = fmt.Sprintf("  cpu=%dms rss=%.1fMiB", r.CPUTimeMs, float64(r.MaxRSSBytes)/(1<<20))
		}
		fmt.Fprintf(out, "%s  %s  %-10s %8s  exit=%d  %d branches, %d points%s%s  %s\n",
			shortID(r.ID.String()),
			r.StartedAt.Local().Format(time.DateTime),
			orNone(r.Equation),
			r.Duration.Round(time.Millisecond),
			r.ExitCode, r.Branches, r.Points, target, usage, status)
	}
	return nil
}
