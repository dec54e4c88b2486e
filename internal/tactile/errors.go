package tactile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBinaryNotFound reports a solver executable that does not exist.
	ErrBinaryNotFound = errors.New("executable not found")

	// ErrNonZeroExit reports a process that ran and failed.
	ErrNonZeroExit = errors.New("non-zero exit status")
)

// RunExecutionError describes a solver invocation that could not be
// started or did not succeed.
type RunExecutionError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RunExecutionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %q", e.Command)
	if errors.Is(e.Err, ErrNonZeroExit) {
		fmt.Fprintf(&sb, ": exit status %d", e.ExitCode)
	} else if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if tail := lastLines(e.Stderr, 5); tail != "" {
		sb.WriteString("\n")
		sb.WriteString(tail)
	}
	return sb.String()
}

func (e *RunExecutionError) Unwrap() error {
	return e.Err
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
