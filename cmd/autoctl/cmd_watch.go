package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"autoctl/internal/logging"
	"autoctl/internal/watch"
)

// watchCmd reprints a diagram summary whenever its files change
var watchCmd = &cobra.Command{
	Use:   "watch NAME...",
	Short: "Print a summary of each diagram whenever its files change",
	Long: `Watches b.NAME, s.NAME and d.NAME for every NAME and prints a one-line
summary after each settled change. Stop with Ctrl-C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	return watchNames(ctx, cmd, args)
}

func watchNames(ctx context.Context, cmd *cobra.Command, names []string) error {
	out := cmd.OutOrStdout()
	w, err := watch.New(app.namer, names, app.cfg.GetDebounce(), func(ctx context.Context, ev watch.Event) {
		d, err := app.ws.Load(ctx, ev.Name)
		if err != nil {
			logging.Get(logging.CategoryWatch).Warn("Reload of %s failed: %v", ev.Name, err)
			fmt.Fprintf(out, "%s: %v\n", ev.Name, err)
			return
		}
		fmt.Fprintf(out, "%s: %s\n", ev.Name, summary(d))
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Watching %d diagram(s) in %s\n", len(names), w.Dir())
	return w.Run(ctx)
}
