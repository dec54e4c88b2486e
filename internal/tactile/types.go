// Package tactile is the process execution layer. It runs the external
// continuation solver and reports exactly what happened: exit status,
// captured output, timings and resource usage.
//
// Which output streams are captured and which pass through to the caller is
// decided per command by a StreamPolicy.
package tactile

import (
	"io"
	"strings"
	"time"
)

// StreamPolicy decides which process streams are buffered.
type StreamPolicy int

const (
	// CaptureAll buffers stdout and stderr.
	CaptureAll StreamPolicy = iota

	// CaptureStderr streams stdout to Command.Stdout and buffers stderr.
	CaptureStderr

	// Passthrough streams both to Command.Stdout and Command.Stderr.
	Passthrough
)

func (p StreamPolicy) String() string {
	switch p {
	case CaptureAll:
		return "capture-all"
	case CaptureStderr:
		return "capture-stderr"
	case Passthrough:
		return "passthrough"
	}
	return "unknown"
}

// Command represents a command to be executed.
type Command struct {
	// Binary is the executable to run. Relative paths containing a separator
	// are resolved against WorkingDirectory.
	Binary string

	// Arguments are the command-line arguments.
	Arguments []string

	// WorkingDirectory is the directory to execute in. Empty means the
	// current directory.
	WorkingDirectory string

	// Environment variables to set (in KEY=VALUE format), added after the
	// inherited environment.
	Environment []string

	// Streams selects what is captured.
	Streams StreamPolicy

	// Stdout and Stderr receive streamed output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// RunID links this execution to a run (for audit).
	RunID string
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// ExecutionResult is the output of one command execution.
type ExecutionResult struct {
	// Success indicates the process could be started and waited for.
	// A command that runs but returns non-zero exit code has Success=true.
	Success bool

	// ExitCode is the command's exit code (-1 if not available).
	ExitCode int

	// Stdout and Stderr hold the captured streams. A streamed stream is
	// empty here.
	Stdout string
	Stderr string

	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time

	// Killed indicates the command was terminated through its context.
	Killed     bool
	KillReason string

	// Truncated indicates captured output exceeded the size limit.
	Truncated      bool
	TruncatedBytes int64

	// ResourceUsage is the process rusage; nil where the platform has none.
	ResourceUsage *ResourceUsage

	// Error contains any infrastructure-level error message.
	Error string

	// Command is a copy of the command that was executed.
	Command *Command
}

// IsError returns true if the execution failed (infrastructure error).
func (r *ExecutionResult) IsError() bool {
	return !r.Success || r.Error != ""
}

// IsNonZeroExit returns true if the command ran but returned non-zero.
func (r *ExecutionResult) IsNonZeroExit() bool {
	return r.Success && r.ExitCode != 0
}

// Output returns the captured stdout followed by the captured stderr.
func (r *ExecutionResult) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// ResourceUsage contains metrics about resource consumption.
type ResourceUsage struct {
	UserTimeMs   int64
	SystemTimeMs int64
	MaxRSSBytes  int64
}

// TotalCPUTimeMs returns total CPU time (user + system).
func (r *ResourceUsage) TotalCPUTimeMs() int64 {
	return r.UserTimeMs + r.SystemTimeMs
}

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventStart    AuditEventType = "start"
	AuditEventComplete AuditEventType = "complete"
	AuditEventKilled   AuditEventType = "killed"
	AuditEventError    AuditEventType = "error"
)

// AuditEvent represents one execution event.
type AuditEvent struct {
	Type         AuditEventType
	Timestamp    time.Time
	Command      Command
	Result       *ExecutionResult
	RunID        string
	ExecutorName string
}

// ExecutorConfig is the configuration for creating executors. The solver
// always inherits the parent environment and runs without a time limit;
// only the caller's context stops it.
type ExecutorConfig struct {
	// MaxOutputBytes caps each captured stream.
	MaxOutputBytes int64

	// EnableResourceUsage collects rusage after the process exits.
	EnableResourceUsage bool
}

// DefaultExecutorConfig returns the solver defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxOutputBytes:      64 * 1024 * 1024,
		EnableResourceUsage: true,
	}
}
