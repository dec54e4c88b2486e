package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"autoctl/internal/artifact"
	"autoctl/internal/autofile"
	"autoctl/internal/bifdiag"
	"autoctl/internal/logging"
	"autoctl/internal/tactile"
)

// RunRecord is one entry of the run history.
type RunRecord struct {
	ID         uuid.UUID
	Equation   string
	Command    string
	StartedAt  time.Time
	Duration   time.Duration
	ExitCode   int
	SavedAs    string
	AppendedTo string
	Branches   int
	Points     int
	Labels     int
	Error      string

	// CPUTimeMs and MaxRSSBytes are the solver's rusage; zero where the
	// platform does not report it.
	CPUTimeMs   int64
	MaxRSSBytes int64
}

// Recorder stores run history. Recording failures are logged, never
// returned from Run.
type Recorder interface {
	Record(ctx context.Context, rec RunRecord) error
}

// Result is the outcome of a successful run.
type Result struct {
	ID         uuid.UUID
	Diagram    *bifdiag.Diagram
	Command    string
	Duration   time.Duration
	SavedAs    string
	AppendedTo string
}

// Run resolves start and opts like Configure, invokes the solver and
// returns the diagram it produced.
//
// The solver binary is checked before anything is written. The
// configuration is staged as fort.2, fort.3 and fort.12 in the namer's
// directory and the outputs are read back from fort.7, fort.8 and fort.9.
// With a save name (opts.SaveAs or the sv constant) the outputs are
// committed as b., s. and d. files with "~" backups; with an append name
// they are appended onto that artifact set. The sv constant is removed
// from the runner afterwards.
func (r *Runner) Run(ctx context.Context, start Start, opts Options) (*Result, error) {
	res, err := r.resolve(start, opts)
	if err != nil {
		return nil, err
	}
	target, cfg := res.target, res.config
	target.config = cfg
	defer target.config.Constants.Delete(KeySaveAs)

	saveAs := opts.SaveAs
	if saveAs == "" {
		if sv, ok := cfg.Constants.String(KeySaveAs); ok {
			saveAs = sv
		}
	}
	appendTo := opts.AppendTo

	id := uuid.New()
	rec := RunRecord{ID: id, Equation: cfg.Equation, StartedAt: time.Now(), ExitCode: -1}
	log := logging.Get(logging.CategoryRun).With("run_id", id.String())

	cmd, err := target.command(cfg, id)
	if err != nil {
		return nil, err
	}
	rec.Command = cmd.CommandString()
	log.Info("Running %s (equation=%s, streams=%s)", rec.Command, cfg.Equation, cmd.Streams)

	if err := target.stage(cfg); err != nil {
		return nil, err
	}

	exec, err := target.executor.Execute(ctx, cmd)
	if err != nil {
		err = &tactile.RunExecutionError{Command: rec.Command, ExitCode: -1, Err: err}
		target.record(ctx, rec, err)
		return nil, err
	}
	rec.Duration = exec.Duration
	rec.ExitCode = exec.ExitCode
	if ru := exec.ResourceUsage; ru != nil {
		rec.CPUTimeMs = ru.TotalCPUTimeMs()
		rec.MaxRSSBytes = ru.MaxRSSBytes
	}
	target.forward(cmd.Streams, exec)
	if err := tactile.Check(exec); err != nil {
		target.record(ctx, rec, err)
		return nil, err
	}

	out := target.namer.Outputs()
	diagram, err := autofile.LoadDiagram(ctx, out.Paths())
	if err != nil {
		err = fmt.Errorf("read solver output: %w", err)
		target.record(ctx, rec, err)
		return nil, err
	}

	src := out
	if saveAs != "" {
		dst := target.namer.Set(saveAs)
		if err := save(out, dst); err != nil {
			target.record(ctx, rec, err)
			return nil, err
		}
		src = dst
		rec.SavedAs = saveAs
		target.info(fmt.Sprintf("Saving to %s, %s, and %s ... done\n",
			target.namer.Name(artifact.KindDiagram, saveAs),
			target.namer.Name(artifact.KindSolution, saveAs),
			target.namer.Name(artifact.KindDiagnostics, saveAs)))
	}
	if appendTo != "" {
		if err := artifact.AppendSet(src, target.namer.Set(appendTo)); err != nil {
			target.record(ctx, rec, err)
			return nil, err
		}
		rec.AppendedTo = appendTo
		log.Info("Appended run output to %s", appendTo)
	}

	rec.Branches = diagram.Len()
	rec.Points = diagram.Points()
	rec.Labels = len(diagram.Solutions)
	target.record(ctx, rec, nil)
	log.Info("Run finished in %s: %d branches, %d points, %d labels", exec.Duration, rec.Branches, rec.Points, rec.Labels)

	return &Result{
		ID:         id,
		Diagram:    diagram,
		Command:    rec.Command,
		Duration:   exec.Duration,
		SavedAs:    rec.SavedAs,
		AppendedTo: rec.AppendedTo,
	}, nil
}

// command builds the solver invocation and checks that the binary exists.
func (r *Runner) command(cfg Config, id uuid.UUID) (tactile.Command, error) {
	binary := cfg.Solver
	if strings.Contains(binary, "%s") {
		if cfg.Equation == "" {
			return tactile.Command{}, &ConfigurationError{Role: RoleEquation, Err: errors.New("no equation configured")}
		}
		binary = fmt.Sprintf(binary, cfg.Equation)
	}
	path, err := tactile.ResolveBinary(binary, r.namer.Dir)
	if err != nil {
		return tactile.Command{}, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	cmd := tactile.Command{
		Binary:           path,
		Arguments:        append([]string(nil), cfg.Args...),
		WorkingDirectory: r.namer.Dir,
		Environment:      append([]string(nil), cfg.Environment...),
		RunID:            id.String(),
	}
	switch {
	case cfg.Verbosity == Silent:
		cmd.Streams = tactile.CaptureAll
	case cfg.Redirect:
		cmd.Streams = tactile.CaptureStderr
		cmd.Stdout = r.stdout
	default:
		cmd.Streams = tactile.Passthrough
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
	}
	return cmd, nil
}

// stage writes the solver inputs and clears outputs of earlier runs.
func (r *Runner) stage(cfg Config) error {
	txn := artifact.NewTxn(false)
	if err := txn.Stage(r.namer.Path(artifact.StageConstants), true, func(w io.Writer) error {
		return autofile.EncodeConstants(w, cfg.Constants)
	}); err != nil {
		txn.Abort()
		return err
	}
	optional := []struct {
		name  string
		write func(io.Writer) error
	}{
		{artifact.StageSolution, nil},
		{artifact.StageHomCont, nil},
	}
	if cfg.Solution != nil {
		optional[0].write = func(w io.Writer) error {
			return autofile.EncodeSolutions(w, []*bifdiag.Solution{cfg.Solution})
		}
	}
	if cfg.HomCont != nil {
		optional[1].write = func(w io.Writer) error {
			return autofile.EncodeConstants(w, cfg.HomCont)
		}
	}
	for _, f := range optional {
		path := r.namer.Path(f.name)
		if f.write == nil {
			if err := removeIfExists(path); err != nil {
				txn.Abort()
				return err
			}
			continue
		}
		if err := txn.Stage(path, true, f.write); err != nil {
			txn.Abort()
			return err
		}
	}
	for _, path := range r.namer.Outputs().Triple() {
		if err := removeIfExists(path); err != nil {
			txn.Abort()
			return err
		}
	}
	return txn.Commit()
}

// forward hands captured solver output to the info sink.
func (r *Runner) forward(policy tactile.StreamPolicy, res *tactile.ExecutionResult) {
	switch policy {
	case tactile.CaptureAll:
		r.info(res.Stdout)
		r.info(res.Stderr)
	case tactile.CaptureStderr:
		r.info(res.Stderr)
	}
}

func (r *Runner) record(ctx context.Context, rec RunRecord, runErr error) {
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(ctx, rec); err != nil {
		logging.StoreWarn("failed to record run %s: %v", rec.ID, err)
		return
	}
	logging.AuditWithRun(rec.ID.String()).Log(logging.AuditEvent{
		EventType: logging.AuditRunRecorded,
		Target:    rec.Equation,
		Success:   runErr == nil,
		Duration:  rec.Duration,
		Error:     rec.Error,
	})
}

// save commits the solver outputs under dst with backups. A missing or
// empty diagram file fails the save; solution and diagnostics files may be
// empty or absent.
func save(out, dst artifact.FileSet) error {
	txn := artifact.NewTxn(true)
	pairs := []struct {
		src, dst   string
		allowEmpty bool
	}{
		{out.Diagram, dst.Diagram, false},
		{out.Solution, dst.Solution, true},
		{out.Diagnostics, dst.Diagnostics, true},
	}
	for i, p := range pairs {
		if i > 0 && !artifact.Exists(p.src) {
			continue
		}
		if err := txn.Stage(p.dst, p.allowEmpty, artifact.CopyFrom(p.src)); err != nil {
			txn.Abort()
			return err
		}
	}
	return txn.Commit()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &artifact.FileIOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// auditExecution mirrors executor audit events into the audit log.
func auditExecution(e tactile.AuditEvent) {
	if e.Result == nil || e.Type == tactile.AuditEventStart {
		return
	}
	var err error
	if e.Result.Error != "" {
		err = errors.New(e.Result.Error)
	} else if e.Type == tactile.AuditEventKilled {
		err = errors.New(e.Result.KillReason)
	}
	logging.AuditWithRun(e.RunID).SolverExec(e.Command.CommandString(), e.Result.ExitCode, e.Result.Duration, err)
}
