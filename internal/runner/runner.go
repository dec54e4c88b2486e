// Package runner resolves run configurations and dispatches continuation
// runs to the external solver.
//
// A Runner is a long-lived handle holding the current configuration:
// equation, constants, HomCont parameters and start solution. Configure,
// Load and Run merge typed Options onto a copy of that configuration and
// commit the copy only when every step succeeded. A Runner is not safe for
// concurrent use; callers that need parallel runs use separate runners.
package runner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"autoctl/internal/artifact"
	"autoctl/internal/autofile"
	"autoctl/internal/bifdiag"
	"autoctl/internal/logging"
	"autoctl/internal/tactile"
)

// Verbosity selects how solver output reaches the caller.
type Verbosity int

const (
	// Silent buffers both solver streams and forwards them to the info
	// sink after the process exits.
	Silent Verbosity = iota

	// Verbose lets solver output through. Combined with Config.Redirect
	// only stdout streams and stderr is buffered and forwarded.
	Verbose
)

func (v Verbosity) String() string {
	if v == Verbose {
		return "verbose"
	}
	return "silent"
}

// Config is the configuration of a Runner.
type Config struct {
	Equation  string
	Constants *bifdiag.Constants
	HomCont   *bifdiag.Constants
	Solution  *bifdiag.Solution

	// Solver is the executable; a %s is replaced by Equation.
	Solver      string
	Args        []string
	Environment []string

	Verbosity Verbosity
	Redirect  bool
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.Constants = c.Constants.Clone()
	out.HomCont = c.HomCont.Clone()
	out.Solution = c.Solution.Clone()
	out.Args = append([]string(nil), c.Args...)
	out.Environment = append([]string(nil), c.Environment...)
	return out
}

// Runner is a configured solver handle.
type Runner struct {
	config   Config
	namer    *artifact.Namer
	executor tactile.Executor
	stdout   io.Writer
	stderr   io.Writer
	info     func(string)
	recorder Recorder
}

// New returns a runner over namer's directory using the direct executor.
func New(namer *artifact.Namer, cfg Config) *Runner {
	if cfg.Constants == nil {
		cfg.Constants = bifdiag.NewConstants()
	}
	executor := tactile.NewDirectExecutor()
	executor.SetAuditCallback(auditExecution)
	return &Runner{
		config:   cfg,
		namer:    namer,
		executor: executor,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		info:     func(string) {},
	}
}

// SetExecutor replaces the process executor.
func (r *Runner) SetExecutor(e tactile.Executor) { r.executor = e }

// SetOutput sets where passed-through solver output goes.
func (r *Runner) SetOutput(stdout, stderr io.Writer) {
	r.stdout = stdout
	r.stderr = stderr
}

// SetInfo sets the sink for user-facing messages and captured output.
func (r *Runner) SetInfo(info func(string)) {
	if info == nil {
		info = func(string) {}
	}
	r.info = info
}

// SetRecorder enables run history.
func (r *Runner) SetRecorder(rec Recorder) { r.recorder = rec }

// Config returns a copy of the current configuration.
func (r *Runner) Config() Config { return r.config.Clone() }

// Namer returns the runner's namer.
func (r *Runner) Namer() *artifact.Namer { return r.namer }

// scratch returns a runner sharing r's collaborators and a copy of its
// configuration.
func (r *Runner) scratch() *Runner {
	s := *r
	s.config = r.config.Clone()
	return &s
}

// resolution is the outcome of merging options onto a runner.
type resolution struct {
	target *Runner
	config Config
}

// resolve performs variant dispatch, file materialisation and apply. The
// returned config is a copy; nothing is committed.
func (r *Runner) resolve(start Start, opts Options) (*resolution, error) {
	target := r
	files := make(map[Role]FileValue, len(opts.Files))
	for role, v := range opts.Files {
		files[role] = v
	}
	var source *bifdiag.Diagram

	switch s := start.(type) {
	case nil, noStart:
	case nameStart:
		for _, role := range Roles {
			if _, given := files[role]; !given {
				files[role] = Named(string(s))
			}
		}
	case solutionStart:
		if _, given := files[RoleSolution]; !given && s.solution != nil {
			files[RoleSolution] = SolutionValue(s.solution)
		}
	case diagramStart:
		target = r.scratch()
		source = s.diagram
	case runnerStart:
		if s.runner != nil {
			target = s.runner
		}
	default:
		return nil, &ConfigurationError{Err: fmt.Errorf("unsupported start %T", start)}
	}

	m, err := target.materialize(files)
	if err != nil {
		return nil, err
	}

	cfg := target.config.Clone()
	if m.equation != "" {
		cfg.Equation = m.equation
	}
	if m.homcont != nil {
		cfg.HomCont = m.homcont.Clone()
	}

	if source != nil && m.solution == nil && len(m.solutions) == 0 {
		sol, err := source.StartSolution(settingIRS(opts.Constants))
		if err != nil {
			return nil, &ConfigurationError{Role: RoleSolution, Err: err}
		}
		m.solution = sol
		if m.constants == nil && sol.Constants != nil {
			m.constants = sol.Constants
		}
	}

	switch {
	case m.constants != nil:
		cfg.Constants = m.constants.Clone()
	case m.solution != nil && m.solution.Constants != nil:
		cfg.Constants = m.solution.Constants.Clone()
	}
	if cfg.Constants == nil {
		cfg.Constants = bifdiag.NewConstants()
	}

	for _, s := range opts.Constants {
		if cfg.HomCont != nil {
			if _, ok := cfg.HomCont.Get(s.Name); ok {
				cfg.HomCont.Set(s.Name, s.Value)
				continue
			}
		}
		cfg.Constants.Set(s.Name, s.Value)
	}

	switch {
	case m.solution != nil:
		cfg.Solution = m.solution.Clone()
	case len(m.solutions) > 0:
		sol, err := pick(m.solutions, cfg.Constants)
		if err != nil {
			return nil, &ConfigurationError{Role: RoleSolution, Name: m.solutionName, Err: err}
		}
		cfg.Solution = sol
	case m.solutionDropped:
		cfg.Solution = nil
	}
	return &resolution{target: target, config: cfg}, nil
}

// materialized holds the file roles after reading.
type materialized struct {
	equation        string
	constants       *bifdiag.Constants
	homcont         *bifdiag.Constants
	solution        *bifdiag.Solution
	solutions       []*bifdiag.Solution
	solutionName    string
	solutionDropped bool
}

// materialize reads every role still given by name. Missing constants and
// HomCont files are dropped silently. A missing solution file is tolerated
// when the equation can still be run; if nothing that needed reading could
// be read the result is ErrNoFiles.
func (r *Runner) materialize(files map[Role]FileValue) (*materialized, error) {
	m := &materialized{}
	wantRead, doneRead := false, false

	if v, ok := files[RoleEquation]; ok && v.Name != "" {
		m.equation = r.namer.Name(artifact.KindEquation, v.Name)
	}

	readConstants := func(role Role, kind artifact.Kind) (*bifdiag.Constants, error) {
		v, ok := files[role]
		if !ok {
			return nil, nil
		}
		if !v.IsName() {
			return v.Constants, nil
		}
		wantRead = true
		path := r.namer.First(kind, v.Name)
		c, err := autofile.ReadConstants(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logging.RunDebug("%s file %s not found, keeping current %s", role, path, role)
			return nil, nil
		case err != nil:
			return nil, &ConfigurationError{Role: role, Name: path, Err: err}
		}
		doneRead = true
		return c, nil
	}

	var err error
	if m.constants, err = readConstants(RoleConstants, artifact.KindConstants); err != nil {
		return nil, err
	}
	if m.homcont, err = readConstants(RoleHomCont, artifact.KindHomCont); err != nil {
		return nil, err
	}

	if v, ok := files[RoleSolution]; ok {
		if !v.IsName() {
			m.solution = v.Solution
		} else {
			wantRead = true
			paths := r.namer.Resolve(artifact.KindSolution, v.Name)
			m.solutionName = v.Name
			sols, err := autofile.ReadSolutions(paths...)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				logging.RunDebug("solution file for %q not found", v.Name)
				m.solutionDropped = true
			case err != nil:
				return nil, &ConfigurationError{Role: RoleSolution, Name: v.Name, Err: err}
			default:
				doneRead = true
				m.solutions = sols
			}
		}
	}

	if wantRead && !doneRead {
		eq := m.equation
		if eq == "" {
			eq = r.config.Equation
		}
		if !r.compiled(eq) {
			return nil, &ConfigurationError{Err: ErrNoFiles}
		}
	}
	return m, nil
}

// sourceSuffixes are the equation file extensions that count as a runnable
// equation when no start solution exists yet.
var sourceSuffixes = []string{".f90", ".f", ".c", ".exe"}

func (r *Runner) compiled(equation string) bool {
	if equation == "" {
		return false
	}
	for _, ext := range sourceSuffixes {
		if artifact.Exists(r.namer.Path(equation + ext)) {
			return true
		}
	}
	return false
}

// pick selects the restart solution by IRS, falling back to the last one.
func pick(sols []*bifdiag.Solution, c *bifdiag.Constants) (*bifdiag.Solution, error) {
	irs, _ := c.Int("IRS")
	d := &bifdiag.Diagram{Solutions: sols}
	if irs == 0 {
		return sols[len(sols)-1].Clone(), nil
	}
	s, err := d.StartSolution(irs)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

func settingIRS(settings []Setting) int {
	irs := 0
	for _, s := range settings {
		if s.Name != "IRS" {
			continue
		}
		c := bifdiag.NewConstants()
		c.Set("IRS", s.Value)
		irs, _ = c.Int("IRS")
	}
	return irs
}

// Configure merges opts onto the runner selected by start and returns the
// resulting configuration.
func (r *Runner) Configure(start Start, opts Options) (Config, error) {
	res, err := r.resolve(start, opts)
	if err != nil {
		return Config{}, err
	}
	res.target.config = res.config
	logging.Run("Runner configured: equation=%s constants=%d", res.config.Equation, res.config.Constants.Len())
	r.info("Runner configured\n")
	return res.config.Clone(), nil
}

// Load merges opts like Configure and returns the start solution carrying
// the merged constants. With no start solution the result is an empty
// solution holding only the constants.
func (r *Runner) Load(start Start, opts Options) (*bifdiag.Solution, error) {
	res, err := r.resolve(start, opts)
	if err != nil {
		return nil, err
	}
	res.target.config = res.config
	sol := res.config.Solution.Clone()
	if sol == nil {
		sol = &bifdiag.Solution{}
	}
	sol.Constants = res.config.Constants.Clone()
	r.info("Runner configured\n")
	return sol, nil
}
