package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"autoctl/internal/logging"
)

// waitDelay bounds how long output copying may outlive a killed process.
const waitDelay = 2 * time.Second

// DirectExecutor executes commands directly on the host using os/exec.
type DirectExecutor struct {
	mu     sync.RWMutex
	config ExecutorConfig

	// auditCallback is called for execution events
	auditCallback func(AuditEvent)
}

// NewDirectExecutor creates a new direct executor with default config.
func NewDirectExecutor() *DirectExecutor {
	return NewDirectExecutorWithConfig(DefaultExecutorConfig())
}

// NewDirectExecutorWithConfig creates a new direct executor with custom config.
func NewDirectExecutorWithConfig(config ExecutorConfig) *DirectExecutor {
	logging.TactileDebug("Creating DirectExecutor: maxOutput=%d bytes, rusage=%t",
		config.MaxOutputBytes, config.EnableResourceUsage)
	return &DirectExecutor{config: config}
}

// SetAuditCallback sets the callback for audit events.
func (e *DirectExecutor) SetAuditCallback(callback func(AuditEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auditCallback = callback
}

func (e *DirectExecutor) emitAudit(event AuditEvent) {
	e.mu.RLock()
	callback := e.auditCallback
	e.mu.RUnlock()

	if callback != nil {
		event.Timestamp = time.Now()
		event.ExecutorName = "direct"
		callback(event)
	}
}

// Validate checks if a command can be executed.
func (e *DirectExecutor) Validate(cmd Command) error {
	if cmd.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	switch cmd.Streams {
	case CaptureAll, CaptureStderr, Passthrough:
	default:
		return fmt.Errorf("unknown stream policy %d", cmd.Streams)
	}
	return nil
}

// Execute runs a command directly on the host and waits for it.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	timer := logging.StartTimer(logging.CategoryTactile, "solver execution")
	defer timer.Stop()

	if err := e.Validate(cmd); err != nil {
		return nil, err
	}
	logging.Tactile("Executing: %s (dir=%s, streams=%s)", cmd.CommandString(), cmd.WorkingDirectory, cmd.Streams)

	result := &ExecutionResult{ExitCode: -1, Command: &cmd}
	e.emitAudit(AuditEvent{Type: AuditEventStart, Command: cmd, RunID: cmd.RunID})

	execCmd := exec.CommandContext(ctx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.WaitDelay = waitDelay
	execCmd.Env = append(os.Environ(), cmd.Environment...)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: e.config.MaxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: e.config.MaxOutputBytes}
	switch cmd.Streams {
	case CaptureAll:
		execCmd.Stdout = stdoutLimited
		execCmd.Stderr = stderrLimited
	case CaptureStderr:
		execCmd.Stdout = orDiscard(cmd.Stdout)
		execCmd.Stderr = stderrLimited
	case Passthrough:
		execCmd.Stdout = orDiscard(cmd.Stdout)
		execCmd.Stderr = orDiscard(cmd.Stderr)
	}

	result.StartedAt = time.Now()
	err := execCmd.Run()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()
	if stdoutLimited.truncated || stderrLimited.truncated {
		result.Truncated = true
		result.TruncatedBytes = stdoutLimited.discarded + stderrLimited.discarded
		logging.Get(logging.CategoryTactile).Warn("Command output truncated: %d bytes discarded", result.TruncatedBytes)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Success = true
		result.ExitCode = 0
	case ctx.Err() != nil:
		result.Success = true
		result.Killed = true
		result.KillReason = ctx.Err().Error()
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		logging.Get(logging.CategoryTactile).Warn("Command killed: %s (%s)", cmd.Binary, result.KillReason)
		e.emitAudit(AuditEvent{Type: AuditEventKilled, Command: cmd, Result: result, RunID: cmd.RunID})
		return result, nil
	case errors.As(err, &exitErr):
		result.Success = true
		result.ExitCode = exitErr.ExitCode()
		logging.TactileDebug("Command exited non-zero: %s -> %d", cmd.Binary, result.ExitCode)
	default:
		result.Success = false
		result.Error = err.Error()
		logging.TactileError("Command failed: %s - %v", cmd.Binary, err)
		e.emitAudit(AuditEvent{Type: AuditEventError, Command: cmd, Result: result, RunID: cmd.RunID})
		return result, nil
	}

	if e.config.EnableResourceUsage {
		result.ResourceUsage = getProcessResourceUsage(execCmd)
	}
	e.emitAudit(AuditEvent{Type: AuditEventComplete, Command: cmd, Result: result, RunID: cmd.RunID})

	logging.Tactile("Command completed: %s -> exit=%d, duration=%s, captured=%d bytes",
		cmd.Binary, result.ExitCode, result.Duration, len(result.Stdout)+len(result.Stderr))
	if ru := result.ResourceUsage; ru != nil {
		logging.TactileDebug("Resource usage: cpu=%dms, maxrss=%d bytes", ru.TotalCPUTimeMs(), ru.MaxRSSBytes)
	}
	return result, nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.max <= 0 {
		written, err := lw.w.Write(p)
		lw.written += int64(written)
		return written, err
	}

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
