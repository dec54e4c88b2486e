package compose

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"

	"autoctl/internal/artifact"
	"autoctl/internal/autofile"
	"autoctl/internal/bifdiag"
)

// Append adds the branches of src after those of dst.
//
// With two memory operands the combined diagram is returned. A memory src
// is encoded and appended onto the files of a named dst. A named src is
// loaded and appended to a memory dst, which is returned. Two names are
// concatenated byte for byte; Outputs() as src appends fort.7, fort.8 and
// fort.9. Missing dst files are created.
func (w *Workspace) Append(ctx context.Context, src, dst Operand) (*bifdiag.Diagram, error) {
	switch {
	case src.IsMemory() && dst.IsMemory():
		return bifdiag.Append(dst.diagram, src.diagram), nil

	case src.IsMemory():
		to := w.files(dst.name)
		if err := appendEncoded(to, src.diagram); err != nil {
			return nil, err
		}
		w.infof("Appending to %s, %s and %s ... done\n", w.display(to.Diagram), w.display(to.Solution), w.display(to.Diagnostics))
		return nil, nil

	case dst.IsMemory():
		from := w.files(src.name)
		loaded, err := w.Load(ctx, src.name)
		if err != nil {
			return nil, err
		}
		w.infof("Appending from %s, %s and %s ... done\n", w.display(from.Diagram), w.display(from.Solution), w.display(from.Diagnostics))
		return bifdiag.Append(dst.diagram, loaded), nil
	}

	from, to := w.files(src.name), w.files(dst.name)
	appended := 0
	for i, path := range from.Triple() {
		if !artifact.Exists(path) {
			continue
		}
		target := to.Triple()[i]
		if err := artifact.Append(path, target); err != nil {
			return nil, err
		}
		appended++
		w.infof("Appending %s to %s ... done\n", w.display(path), w.display(target))
	}
	if appended == 0 {
		return nil, &artifact.FileIOError{Op: "append", Path: from.Diagram, Err: fs.ErrNotExist}
	}
	return nil, nil
}

func appendEncoded(to artifact.FileSet, d *bifdiag.Diagram) error {
	parts := []struct {
		path   string
		encode func(io.Writer) error
	}{
		{to.Diagram, func(w io.Writer) error { return autofile.EncodeBranches(w, d.Branches) }},
		{to.Solution, func(w io.Writer) error { return autofile.EncodeSolutions(w, d.Solutions) }},
		{to.Diagnostics, func(w io.Writer) error { return autofile.EncodeDiagnostics(w, d.Branches) }},
	}
	for _, p := range parts {
		var buf bytes.Buffer
		if err := p.encode(&buf); err != nil {
			return err
		}
		if buf.Len() == 0 {
			continue
		}
		if err := artifact.AppendFrom(&buf, p.path); err != nil {
			return err
		}
	}
	return nil
}

// Save persists src under name, keeping the previous files as "~"
// backups. A memory diagram with branch data writes b, s and d; one that
// holds only solutions writes s. A named src, or Outputs(), is copied file
// by file.
func (w *Workspace) Save(ctx context.Context, src Operand, name string) error {
	if name == "" {
		return fmt.Errorf("save: empty target name")
	}
	dst := w.files(name)

	if src.IsMemory() {
		d := src.diagram
		if d.Points() > 0 {
			if err := w.write(dst.Paths(), d); err != nil {
				return err
			}
			w.infof("Saving to %s, %s, and %s ... done\n", w.display(dst.Diagram), w.display(dst.Solution), w.display(dst.Diagnostics))
			return nil
		}
		txn := artifact.NewTxn(true)
		if err := txn.Stage(dst.Solution, true, func(wr io.Writer) error {
			return autofile.EncodeSolutions(wr, d.Solutions)
		}); err != nil {
			txn.Abort()
			return err
		}
		if err := txn.Commit(); err != nil {
			return err
		}
		w.infof("Saving to %s ... done\n", w.display(dst.Solution))
		return nil
	}

	from := w.files(src.name)
	txn := artifact.NewTxn(true)
	var msgs []string
	for i, path := range from.Triple() {
		if !artifact.Exists(path) {
			continue
		}
		target := dst.Triple()[i]
		if err := txn.Stage(target, true, artifact.CopyFrom(path)); err != nil {
			txn.Abort()
			return err
		}
		msgs = append(msgs, fmt.Sprintf("Saving %s as %s ... done\n", w.display(path), w.display(target)))
	}
	if len(msgs) == 0 {
		txn.Abort()
		return &artifact.FileIOError{Op: "save", Path: from.Diagram, Err: fs.ErrNotExist}
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	for _, m := range msgs {
		w.infof("%s", m)
	}
	return nil
}
