package artifact

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"autoctl/internal/logging"
)

// Append concatenates the bytes of src onto dst. The result is written to
// "<dst>~~" and renamed into place; a missing dst is created.
func Append(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &FileIOError{Op: "append", Path: src, Err: err}
	}
	defer in.Close()
	return AppendFrom(in, dst)
}

// AppendFrom appends everything read from r onto dst the way Append does.
func AppendFrom(r io.Reader, dst string) error {
	tmp := TempName(dst)
	out, err := os.Create(tmp)
	if err != nil {
		return &FileIOError{Op: "append", Path: tmp, Err: err}
	}
	size, err := copyInto(out, dst, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return &FileIOError{Op: "append", Path: dst, Err: err}
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return &FileIOError{Op: "append", Path: dst, Err: err}
	}
	logging.Audit().FileOp(logging.AuditFileAppend, dst, size, nil)
	return nil
}

// CopyFrom returns a Stage writer that copies the file at path.
func CopyFrom(path string) func(io.Writer) error {
	return func(w io.Writer) error {
		f, err := os.Open(path)
		if err != nil {
			return &FileIOError{Op: "copy", Path: path, Err: err}
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	}
}

func copyInto(out io.Writer, dst string, src io.Reader) (int64, error) {
	var total int64
	existing, err := os.Open(dst)
	switch {
	case err == nil:
		n, err := io.Copy(out, existing)
		existing.Close()
		if err != nil {
			return 0, err
		}
		total += n
	case !errors.Is(err, fs.ErrNotExist):
		return 0, err
	}
	n, err := io.Copy(out, src)
	return total + n, err
}

// AppendSet appends every file of src onto the matching file of dst,
// skipping source files that do not exist.
func AppendSet(src, dst FileSet) error {
	pairs := [][2]string{
		{src.Diagram, dst.Diagram},
		{src.Solution, dst.Solution},
		{src.Diagnostics, dst.Diagnostics},
	}
	for _, p := range pairs {
		if p[0] == "" || p[1] == "" {
			continue
		}
		if _, err := os.Stat(p[0]); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := Append(p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

// Backup copies path to "<path>~" when path exists.
func Backup(path string) error {
	in, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &FileIOError{Op: "backup", Path: path, Err: err}
	}
	defer in.Close()

	out, err := os.Create(BackupName(path))
	if err != nil {
		return &FileIOError{Op: "backup", Path: BackupName(path), Err: err}
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	logging.Audit().FileOp(logging.AuditFileBackup, path, n, err)
	if err != nil {
		return &FileIOError{Op: "backup", Path: BackupName(path), Err: err}
	}
	return nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
