package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"autoctl/internal/artifact"
	"autoctl/internal/compose"
	"autoctl/internal/config"
	"autoctl/internal/logging"
	"autoctl/internal/runner"
	"autoctl/internal/store"
)

// application is the composition root shared by every command. The
// runner is the process-wide default runner.
type application struct {
	root   string
	cfg    *config.Config
	namer  *artifact.Namer
	runner *runner.Runner
	ws     *compose.Workspace
	runs   *store.RunLog
	out    io.Writer
}

// setup loads the configuration for the selected workspace and wires the
// runner, the diagram workspace and the run history.
func setup() (*application, error) {
	root := workspace
	if root == "" {
		root, _ = os.Getwd()
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	if err := logging.Initialize(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       config.ResolvePath(root, cfg.Logging.File),
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("Workspace %s (config %s)", root, path)

	namer, err := artifact.NewNamer(config.ResolvePath(root, cfg.Solver.WorkingDir), cfg.Naming.Templates)
	if err != nil {
		return nil, err
	}

	a := &application{root: root, cfg: cfg, namer: namer, out: os.Stdout}
	a.runner = runner.New(namer, runnerConfig(cfg))
	a.ws = compose.New(namer, a.info)
	a.runner.SetInfo(a.info)

	if cfg.History.Enabled {
		runs, err := store.Open(config.ResolvePath(root, cfg.History.DatabasePath))
		if err != nil {
			logging.StoreWarn("Run history disabled: %v", err)
		} else {
			a.runs = runs
			a.runner.SetRecorder(runs)
		}
	}
	return a, nil
}

// runnerConfig maps the solver section onto the default runner.
func runnerConfig(cfg *config.Config) runner.Config {
	rc := runner.Config{
		Solver:   cfg.Solver.Executable,
		Args:     append([]string(nil), cfg.Solver.Args...),
		Redirect: cfg.Solver.Redirect,
	}
	if cfg.IsVerbose() {
		rc.Verbosity = runner.Verbose
	}
	if cfg.Solver.AutoDir != "" {
		rc.Environment = []string{"AUTO_DIR=" + cfg.Solver.AutoDir}
	}
	return rc
}

// bind sends user-facing output to the command's writers.
func (a *application) bind(cmd *cobra.Command) {
	a.out = cmd.OutOrStdout()
	a.runner.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func (a *application) info(msg string) {
	fmt.Fprint(a.out, msg)
}

// Close releases the run history.
func (a *application) Close() {
	if a.runs != nil {
		if err := a.runs.Close(); err != nil {
			logging.StoreWarn("Failed to close run history: %v", err)
		}
		a.runs = nil
	}
}
