package compose

import (
	"context"
	"fmt"

	"autoctl/internal/artifact"
	"autoctl/internal/autofile"
	"autoctl/internal/bifdiag"
)

// Relabel renumbers labels 1..n. A memory operand returns the relabeled
// copy. A named operand is rewritten in place (b and s, with backups), or
// written to out with its d file copied alongside.
func (w *Workspace) Relabel(ctx context.Context, o Operand, out string) (*bifdiag.Diagram, error) {
	if o.IsMemory() {
		d := bifdiag.Relabel(o.diagram)
		w.infof("Relabeling done\n")
		return d, nil
	}
	src := w.files(o.name)
	d, err := w.load(ctx, autofile.Paths{Diagram: src.Diagram, Solution: src.Solution})
	if err != nil {
		return nil, err
	}
	relabeled := bifdiag.Relabel(d)

	dst := src
	if out != "" {
		dst = w.files(out)
	}
	txn := artifact.NewTxn(true)
	if err := autofile.WriteDiagram(txn, autofile.Paths{Diagram: dst.Diagram, Solution: dst.Solution}, relabeled); err != nil {
		txn.Abort()
		return nil, err
	}
	if out != "" && artifact.Exists(src.Diagnostics) {
		if err := txn.Stage(dst.Diagnostics, true, artifact.CopyFrom(src.Diagnostics)); err != nil {
			txn.Abort()
			return nil, err
		}
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}
	w.infof("Relabeling succeeded\n")
	w.infof("Relabeling done\n")
	return relabeled, nil
}

// Merge joins branches that continue each other. Named operands are
// rewritten in place with backups, or written to out.
func (w *Workspace) Merge(ctx context.Context, o Operand, out string) (*bifdiag.Diagram, error) {
	if o.IsMemory() {
		d := bifdiag.Merge(o.diagram)
		w.infof("Merge done\n")
		return d, nil
	}
	d, err := w.Load(ctx, o.name)
	if err != nil {
		return nil, err
	}
	merged := bifdiag.Merge(d)
	dst := w.files(o.name)
	if out != "" {
		dst = w.files(out)
	}
	if err := w.write(dst.Paths(), merged); err != nil {
		return nil, err
	}
	w.infof("Merging succeeded\n")
	w.infof("Merging done\n")
	return merged, nil
}

// Subtract subtracts branch (1-based) of ref from every branch of o,
// interpolating along column from point onwards. A named o has only its b
// file rewritten, keeping a backup. The reference must exist.
func (w *Workspace) Subtract(ctx context.Context, o, ref Operand, column string, branch, point int) (*bifdiag.Diagram, error) {
	var (
		d   *bifdiag.Diagram
		err error
	)
	if o.IsMemory() {
		d = o.diagram
	} else if d, err = w.load(ctx, autofile.Paths{Diagram: w.files(o.name).Diagram}); err != nil {
		return nil, err
	}

	refDiagram := d
	switch {
	case ref.IsMemory():
		refDiagram = ref.diagram
	case o.IsMemory() || ref.name != o.name:
		if refDiagram, err = w.load(ctx, autofile.Paths{Diagram: w.files(ref.name).Diagram}); err != nil {
			return nil, err
		}
	}
	if branch < 1 || branch > refDiagram.Len() {
		return nil, &bifdiag.InterpolationError{
			Column: column,
			Err:    fmt.Errorf("reference %s has no branch %d (%d branches)", ref, branch, refDiagram.Len()),
		}
	}

	sub, err := bifdiag.Subtract(d, refDiagram.Branches[branch-1], column, point)
	if err != nil {
		return nil, err
	}
	if !o.IsMemory() {
		if err := w.write(autofile.Paths{Diagram: w.files(o.name).Diagram}, sub); err != nil {
			return nil, err
		}
	}
	w.infof("Subtracting done\n")
	return sub, nil
}

// Selector picks labels for the filter operations.
type Selector = bifdiag.Selector

// FilterLabels removes labels from o. An empty selector selects the
// special types BP, LP, HB, PD, TR, EP and MX. keepListed inverts the
// selection; keepTypeOnly leaves the type code on the diagram row. Named
// operands have their b and s files rewritten with backups; the empty name
// filters fort.7 and fort.8.
func (w *Workspace) FilterLabels(ctx context.Context, o Operand, sel Selector, keepTypeOnly, keepListed bool) (*bifdiag.Diagram, error) {
	if o.IsMemory() {
		return bifdiag.FilterLabels(o.diagram, sel, keepTypeOnly, keepListed), nil
	}
	files := w.files(o.name)
	p := autofile.Paths{Diagram: files.Diagram, Solution: files.Solution}
	d, err := w.load(ctx, p)
	if err != nil {
		return nil, err
	}
	filtered := bifdiag.FilterLabels(d, sel, keepTypeOnly, keepListed)
	if err := w.write(p, filtered); err != nil {
		return nil, err
	}
	return filtered, nil
}

// DeleteSpecialPoints removes the selected points (dsp).
func (w *Workspace) DeleteSpecialPoints(ctx context.Context, o Operand, sel Selector) (*bifdiag.Diagram, error) {
	return w.FilterLabels(ctx, o, sel, false, false)
}

// KeepSpecialPoints removes every point not selected (ksp).
func (w *Workspace) KeepSpecialPoints(ctx context.Context, o Operand, sel Selector) (*bifdiag.Diagram, error) {
	return w.FilterLabels(ctx, o, sel, false, true)
}

// DeleteLabels removes the selected labels but keeps their type marks
// (dlb).
func (w *Workspace) DeleteLabels(ctx context.Context, o Operand, sel Selector) (*bifdiag.Diagram, error) {
	return w.FilterLabels(ctx, o, sel, true, false)
}

// KeepLabels removes every label not selected, keeping type marks (klb).
func (w *Workspace) KeepLabels(ctx context.Context, o Operand, sel Selector) (*bifdiag.Diagram, error) {
	return w.FilterLabels(ctx, o, sel, true, true)
}
