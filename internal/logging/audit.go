package logging

import "time"

// AuditEventType names an auditable action.
type AuditEventType string

const (
	AuditSolverExec   AuditEventType = "solver_exec"
	AuditSolverError  AuditEventType = "solver_error"
	AuditFileCommit   AuditEventType = "file_commit"
	AuditFileAppend   AuditEventType = "file_append"
	AuditFileBackup   AuditEventType = "file_backup"
	AuditRunRecorded  AuditEventType = "run_recorded"
	AuditConfigLoaded AuditEventType = "config_loaded"
)

// AuditEvent is one structured audit record.
type AuditEvent struct {
	EventType AuditEventType
	Target    string
	Success   bool
	Duration  time.Duration
	Error     string
	Fields    map[string]interface{}
}

// AuditLogger writes audit events to the audit category.
type AuditLogger struct {
	runID string
}

// Audit returns the process audit logger.
func Audit() *AuditLogger { return &AuditLogger{} }

// AuditWithRun returns an audit logger tagging every event with a run id.
func AuditWithRun(runID string) *AuditLogger { return &AuditLogger{runID: runID} }

// Log writes the event.
func (a *AuditLogger) Log(e AuditEvent) {
	if !IsCategoryEnabled(CategoryAudit) {
		return
	}
	kv := []interface{}{
		"event", string(e.EventType),
		"target", e.Target,
		"success", e.Success,
		"dur_ms", e.Duration.Milliseconds(),
	}
	if a.runID != "" {
		kv = append(kv, "run", a.runID)
	}
	if e.Error != "" {
		kv = append(kv, "error", e.Error)
	}
	for k, v := range e.Fields {
		kv = append(kv, k, v)
	}
	Get(CategoryAudit).Sugar().Infow(string(e.EventType), kv...)
}

// SolverExec records one solver invocation.
func (a *AuditLogger) SolverExec(command string, exitCode int, duration time.Duration, err error) {
	e := AuditEvent{
		EventType: AuditSolverExec,
		Target:    command,
		Success:   err == nil && exitCode == 0,
		Duration:  duration,
		Fields:    map[string]interface{}{"exit_code": exitCode},
	}
	if err != nil {
		e.EventType = AuditSolverError
		e.Error = err.Error()
	}
	a.Log(e)
}

// FileOp records a file commit, append or backup.
func (a *AuditLogger) FileOp(op AuditEventType, path string, size int64, err error) {
	e := AuditEvent{
		EventType: op,
		Target:    path,
		Success:   err == nil,
		Fields:    map[string]interface{}{"size": size},
	}
	if err != nil {
		e.Error = err.Error()
	}
	a.Log(e)
}
