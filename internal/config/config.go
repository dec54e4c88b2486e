// Package config loads autoctl.yaml, the application configuration: how to
// invoke the solver, naming templates, logging, run history and the
// artifact watcher.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the workspace root.
const FileName = "autoctl.yaml"

// Config holds all autoctl configuration.
type Config struct {
	Solver  SolverConfig  `yaml:"solver"`
	Naming  NamingConfig  `yaml:"naming"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
}

// SolverConfig configures the external continuation solver.
type SolverConfig struct {
	// Executable is the solver command. A single %s is replaced by the
	// equation name, e.g. "./%s.exe".
	Executable string   `yaml:"executable"`
	Args       []string `yaml:"args,omitempty"`
	// WorkingDir is where fort.* files are staged; relative to the workspace.
	WorkingDir string `yaml:"working_dir"`
	// Verbosity is "silent" or "verbose".
	Verbosity string `yaml:"verbosity"`
	// Redirect streams solver stdout while keeping stderr captured.
	Redirect bool `yaml:"redirect"`
	// AutoDir is exported to the solver as AUTO_DIR when set.
	AutoDir string `yaml:"auto_dir"`
}

// NamingConfig overrides artifact file name templates, keyed by kind
// (equation, constants, diagram, solution, diagnostics, homcont).
type NamingConfig struct {
	Templates map[string]string `yaml:"templates,omitempty"`
}

// HistoryConfig configures the run history ledger.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig configures the artifact watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// Verbosity values.
const (
	VerbositySilent  = "silent"
	VerbosityVerbose = "verbose"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			Executable: "./%s.exe",
			WorkingDir: ".",
			Verbosity:  VerbositySilent,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: ".autoctl/history.db",
		},
		Watch: WatchConfig{
			Debounce: "250ms",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyDefaults fills fields a partial file left empty.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Solver.Executable == "" {
		c.Solver.Executable = def.Solver.Executable
	}
	if c.Solver.WorkingDir == "" {
		c.Solver.WorkingDir = def.Solver.WorkingDir
	}
	if c.Solver.Verbosity == "" {
		c.Solver.Verbosity = def.Solver.Verbosity
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.History.DatabasePath == "" {
		c.History.DatabasePath = def.History.DatabasePath
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = def.Watch.Debounce
	}
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if exe := os.Getenv("AUTOCTL_SOLVER"); exe != "" {
		c.Solver.Executable = exe
	}
	if v := os.Getenv("AUTOCTL_VERBOSE"); v != "" {
		if verbose, err := strconv.ParseBool(v); err == nil {
			c.Solver.Verbosity = VerbositySilent
			if verbose {
				c.Solver.Verbosity = VerbosityVerbose
			}
		}
	}
	if v := os.Getenv("AUTOCTL_REDIRECT"); v != "" {
		if redirect, err := strconv.ParseBool(v); err == nil {
			c.Solver.Redirect = redirect
		}
	}
	if dir := os.Getenv("AUTO_DIR"); dir != "" {
		c.Solver.AutoDir = dir
	}
}

// knownKinds mirrors the artifact kinds that accept a naming template.
var knownKinds = []string{"equation", "constants", "diagram", "solution", "diagnostics", "homcont"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.Count(c.Solver.Executable, "%s") > 1 {
		return fmt.Errorf("solver.executable %q: at most one %%s allowed", c.Solver.Executable)
	}
	if strings.TrimSpace(c.Solver.Executable) == "" {
		return fmt.Errorf("solver.executable is empty")
	}
	switch c.Solver.Verbosity {
	case VerbositySilent, VerbosityVerbose:
	default:
		return fmt.Errorf("invalid solver.verbosity: %s (valid: %s, %s)", c.Solver.Verbosity, VerbositySilent, VerbosityVerbose)
	}
	for kind, tmpl := range c.Naming.Templates {
		if !contains(knownKinds, kind) {
			return fmt.Errorf("naming.templates: unknown kind %q (valid: %v)", kind, knownKinds)
		}
		if strings.Count(tmpl, "%s") != 1 {
			return fmt.Errorf("naming.templates.%s: %q must contain exactly one %%s", kind, tmpl)
		}
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("invalid watch.debounce: %w", err)
	}
	return nil
}

// GetDebounce returns the watcher debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d < 0 {
		return 250 * time.Millisecond
	}
	return d
}

// IsVerbose reports whether solver output passes through.
func (c *Config) IsVerbose() bool {
	return c.Solver.Verbosity == VerbosityVerbose
}

// SolverCommand expands the executable template for an equation name.
func (c *Config) SolverCommand(equation string) string {
	if strings.Contains(c.Solver.Executable, "%s") {
		return fmt.Sprintf(c.Solver.Executable, equation)
	}
	return c.Solver.Executable
}

// ResolvePath makes a configured path absolute against workspace.
func ResolvePath(workspace, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workspace, path)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
