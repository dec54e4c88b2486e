// Package compose applies the diagram algebra to named artifact sets.
//
// Every operation takes Operands: an in-memory diagram, which is
// transformed and returned without touching disk, or a name, whose b., s.
// and d. files are loaded, transformed and written back through a staged
// commit that keeps the previous files as "~" backups. The empty name
// stands for the solver outputs fort.7, fort.8 and fort.9.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"autoctl/internal/artifact"
	"autoctl/internal/autofile"
	"autoctl/internal/bifdiag"
	"autoctl/internal/logging"
)

// Operand is either a named artifact set or an in-memory diagram.
type Operand struct {
	name    string
	diagram *bifdiag.Diagram
}

// Named refers to the artifact set called name.
func Named(name string) Operand { return Operand{name: name} }

// Outputs refers to the solver output files.
func Outputs() Operand { return Operand{} }

// Memory wraps an in-memory diagram.
func Memory(d *bifdiag.Diagram) Operand {
	if d == nil {
		d = &bifdiag.Diagram{}
	}
	return Operand{diagram: d}
}

// IsMemory reports whether o holds a diagram.
func (o Operand) IsMemory() bool { return o.diagram != nil }

// Name returns the artifact name; empty for memory operands and outputs.
func (o Operand) Name() string { return o.name }

// Diagram returns the in-memory diagram, or nil.
func (o Operand) Diagram() *bifdiag.Diagram { return o.diagram }

func (o Operand) String() string {
	switch {
	case o.diagram != nil:
		return "<memory>"
	case o.name == "":
		return "<outputs>"
	}
	return o.name
}

// Workspace runs operations against one directory of artifacts.
type Workspace struct {
	Namer *artifact.Namer
	Info  func(string)
}

// New returns a workspace. A nil info discards messages.
func New(namer *artifact.Namer, info func(string)) *Workspace {
	if info == nil {
		info = func(string) {}
	}
	return &Workspace{Namer: namer, Info: info}
}

func (w *Workspace) infof(format string, args ...interface{}) {
	if w.Info != nil {
		w.Info(fmt.Sprintf(format, args...))
	}
}

// display shortens path for messages.
func (w *Workspace) display(path string) string {
	if w.Namer.Dir == "" {
		return path
	}
	if rel, err := filepath.Rel(w.Namer.Dir, path); err == nil {
		return rel
	}
	return path
}

// files returns the b, s and d paths of name.
func (w *Workspace) files(name string) artifact.FileSet {
	return w.Namer.Set(name)
}

// Load reads the diagram stored under name. A name without any files
// yields a *artifact.FileIOError.
func (w *Workspace) Load(ctx context.Context, name string) (*bifdiag.Diagram, error) {
	return w.load(ctx, w.files(name).Paths())
}

func (w *Workspace) load(ctx context.Context, p autofile.Paths) (*bifdiag.Diagram, error) {
	d, err := autofile.LoadDiagram(ctx, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &artifact.FileIOError{Op: "load", Path: p.Diagram, Err: err}
	}
	if err != nil {
		return nil, err
	}
	logging.ComposeDebug("loaded %s: %d branches, %d solutions", p.Diagram, d.Len(), len(d.Solutions))
	return d, nil
}

// diagram materialises an operand.
func (w *Workspace) diagram(ctx context.Context, o Operand) (*bifdiag.Diagram, error) {
	if o.IsMemory() {
		return o.diagram, nil
	}
	return w.Load(ctx, o.name)
}

// write commits d to p with backups.
func (w *Workspace) write(p autofile.Paths, d *bifdiag.Diagram) error {
	txn := artifact.NewTxn(true)
	if err := autofile.WriteDiagram(txn, p, d); err != nil {
		txn.Abort()
		return err
	}
	return txn.Commit()
}

// Diagnostics returns the diagnostic lines of o, restricted to lines
// mentioning keyword when it is non-empty.
func (w *Workspace) Diagnostics(ctx context.Context, o Operand, keyword string) ([]bifdiag.DiagnosticLine, error) {
	d, err := w.diagram(ctx, o)
	if err != nil {
		return nil, err
	}
	if keyword == "" {
		return d.Diagnostics(), nil
	}
	return d.Query(keyword), nil
}

// SpecialLabels returns the label numbers of o with the given type name,
// or of every labeled solution when typeName is empty.
func (w *Workspace) SpecialLabels(ctx context.Context, o Operand, typeName string) ([]int, error) {
	d, err := w.diagram(ctx, o)
	if err != nil {
		return nil, err
	}
	if typeName != "" {
		return d.Labels(typeName), nil
	}
	var out []int
	for _, s := range d.Solutions {
		if s.Label.Labeled() {
			out = append(out, s.Label.ID)
		}
	}
	return out, nil
}
