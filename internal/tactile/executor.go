package tactile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executor is the interface for command execution.
type Executor interface {
	// Execute runs a command and returns its result. A non-zero exit is
	// reported through the result, not the error.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)

	// Validate checks if a command can be executed by this executor.
	Validate(cmd Command) error
}

// ResolveBinary locates binary the way Execute will: names with a path
// separator are taken relative to dir, bare names are looked up on PATH.
// A missing or non-executable binary yields a *RunExecutionError wrapping
// ErrBinaryNotFound.
func ResolveBinary(binary, dir string) (string, error) {
	if binary == "" {
		return "", &RunExecutionError{Err: fmt.Errorf("%w: empty command", ErrBinaryNotFound)}
	}
	if !strings.ContainsRune(binary, filepath.Separator) && !strings.ContainsRune(binary, '/') {
		path, err := exec.LookPath(binary)
		if err != nil {
			return "", &RunExecutionError{Command: binary, Err: fmt.Errorf("%w: %v", ErrBinaryNotFound, err)}
		}
		return path, nil
	}
	path := binary
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &RunExecutionError{Command: binary, Err: fmt.Errorf("%w: %s", ErrBinaryNotFound, path)}
	case err != nil:
		return "", &RunExecutionError{Command: binary, Err: err}
	case info.IsDir() || info.Mode().Perm()&0111 == 0:
		return "", &RunExecutionError{Command: binary, Err: fmt.Errorf("%w: %s is not executable", ErrBinaryNotFound, path)}
	}
	return path, nil
}

// Check converts a result into an error: infrastructure failures, kills
// and non-zero exits all become *RunExecutionError carrying captured
// stderr.
func Check(res *ExecutionResult) error {
	if res == nil {
		return nil
	}
	cmdline := ""
	if res.Command != nil {
		cmdline = res.Command.CommandString()
	}
	switch {
	case res.IsError():
		return &RunExecutionError{Command: cmdline, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: errors.New(res.Error)}
	case res.Killed:
		return &RunExecutionError{Command: cmdline, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: fmt.Errorf("killed: %s", res.KillReason)}
	case res.ExitCode != 0:
		return &RunExecutionError{Command: cmdline, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: ErrNonZeroExit}
	}
	return nil
}
