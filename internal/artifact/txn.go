package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"autoctl/internal/logging"
)

const (
	backupSuffix = "~"
	tempSuffix   = "~~"
)

// BackupName returns the one-deep backup name for path.
func BackupName(path string) string { return path + backupSuffix }

// TempName returns the staging name for path.
func TempName(path string) string { return path + tempSuffix }

type stagedFile struct {
	path       string
	size       int64
	allowEmpty bool
}

// Txn writes a group of files so that either all of them replace their
// targets or none does. Each file is staged as "<path>~~"; Commit checks
// every staged file before renaming any of them into place.
type Txn struct {
	// Backup rotates an existing target to "<path>~" before replacing it.
	Backup bool
	staged []stagedFile
	done   bool
}

// NewTxn starts a transaction.
func NewTxn(backup bool) *Txn {
	return &Txn{Backup: backup}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Stage writes the content for path into its temporary. allowEmpty permits
// a zero-byte result.
func (t *Txn) Stage(path string, allowEmpty bool, write func(io.Writer) error) error {
	if t.done {
		return errors.New("artifact: transaction already finished")
	}
	tmp := TempName(path)
	f, err := os.Create(tmp)
	if err != nil {
		return &FileIOError{Op: "stage", Path: tmp, Err: err}
	}
	cw := &countingWriter{w: f}
	werr := write(cw)
	cerr := f.Close()
	t.staged = append(t.staged, stagedFile{path: path, size: cw.n, allowEmpty: allowEmpty})
	if werr != nil {
		return fmt.Errorf("artifact: write %s: %w", tmp, werr)
	}
	if cerr != nil {
		return &FileIOError{Op: "stage", Path: tmp, Err: cerr}
	}
	return nil
}

// Staged returns the target paths staged so far.
func (t *Txn) Staged() []string {
	out := make([]string, len(t.staged))
	for i, s := range t.staged {
		out[i] = s.path
	}
	return out
}

// Commit verifies every temporary and then moves them into place. A
// verification failure aborts the transaction and leaves all targets
// untouched.
func (t *Txn) Commit() error {
	if t.done {
		return errors.New("artifact: transaction already finished")
	}
	timer := logging.StartTimer(logging.CategoryArtifact, "commit")
	defer timer.Stop()

	for _, s := range t.staged {
		if err := s.verify(); err != nil {
			t.Abort()
			return err
		}
	}
	t.done = true
	for _, s := range t.staged {
		if t.Backup {
			if err := rotate(s.path); err != nil {
				logging.Audit().FileOp(logging.AuditFileBackup, s.path, s.size, err)
				return err
			}
		}
		if err := os.Rename(TempName(s.path), s.path); err != nil {
			logging.Audit().FileOp(logging.AuditFileCommit, s.path, s.size, err)
			return &FileIOError{Op: "commit", Path: s.path, Err: err}
		}
		logging.Audit().FileOp(logging.AuditFileCommit, s.path, s.size, nil)
		logging.ArtifactDebug("committed %s (%d bytes)", s.path, s.size)
	}
	return nil
}

func (s stagedFile) verify() error {
	info, err := os.Stat(TempName(s.path))
	if err != nil {
		return &FileIOError{Op: "verify", Path: TempName(s.path), Err: err}
	}
	if info.Size() != s.size {
		return &FileIOError{Op: "verify", Path: TempName(s.path),
			Err: fmt.Errorf("size %d, wrote %d bytes", info.Size(), s.size)}
	}
	if s.size == 0 && !s.allowEmpty {
		return &FileIOError{Op: "verify", Path: TempName(s.path), Err: errors.New("empty file")}
	}
	return nil
}

// Abort removes every temporary. It is safe to call after Commit.
func (t *Txn) Abort() {
	if t.done {
		return
	}
	t.done = true
	for _, s := range t.staged {
		_ = os.Remove(TempName(s.path))
	}
}

// rotate moves path to its backup name, replacing an older backup. A
// missing path is not an error.
func rotate(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	backup := BackupName(path)
	if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &FileIOError{Op: "backup", Path: backup, Err: err}
	}
	if err := os.Rename(path, backup); err != nil {
		return &FileIOError{Op: "backup", Path: path, Err: err}
	}
	logging.ArtifactDebug("rotated %s to %s", path, backup)
	return nil
}
