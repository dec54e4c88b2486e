package bifdiag

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Diagram is an ordered collection of branches plus the solution list that
// holds the full data of labeled points. Branch order is continuation order.
type Diagram struct {
	Branches  []*Branch
	Solutions []*Solution
}

// Len returns the number of branches.
func (d *Diagram) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Branches)
}

// Empty reports whether the diagram has neither branch points nor solutions.
func (d *Diagram) Empty() bool {
	if d == nil {
		return true
	}
	for _, b := range d.Branches {
		if b.Len() > 0 {
			return false
		}
	}
	return len(d.Solutions) == 0
}

// Clone returns a deep copy.
func (d *Diagram) Clone() *Diagram {
	if d == nil {
		return nil
	}
	out := &Diagram{
		Branches:  make([]*Branch, len(d.Branches)),
		Solutions: make([]*Solution, len(d.Solutions)),
	}
	for i, b := range d.Branches {
		out.Branches[i] = b.Clone()
	}
	for i, s := range d.Solutions {
		out.Solutions[i] = s.Clone()
	}
	return out
}

// Points returns the total number of branch points.
func (d *Diagram) Points() int {
	n := 0
	for _, b := range d.Branches {
		n += b.Len()
	}
	return n
}

// Diagnostics returns every diagnostic line, branch by branch.
func (d *Diagram) Diagnostics() []DiagnosticLine {
	var out []DiagnosticLine
	for _, b := range d.Branches {
		out = append(out, b.Diagnostics...)
	}
	return out
}

// Query returns the diagnostic lines containing keyword, e.g. "Eigenvalue",
// "Fold", "Hopf", "Mult", "NOTE".
func (d *Diagram) Query(keyword string) []DiagnosticLine {
	var out []DiagnosticLine
	for _, l := range d.Diagnostics() {
		if strings.Contains(l.Text, keyword) {
			out = append(out, l)
		}
	}
	return out
}

// Labels returns the label numbers of solutions whose type name matches
// typeName, in solution list order.
func (d *Diagram) Labels(typeName string) []int {
	typeName = strings.ToUpper(typeName)
	var out []int
	for _, s := range d.Solutions {
		if s.Label.Type.Name() == typeName {
			out = append(out, s.Label.ID)
		}
	}
	return out
}

// Lookup finds a solution by label number ("5") or by type name and
// occurrence ("LP2" is the second LP in the solution list).
func (d *Diagram) Lookup(ref string) (*Solution, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		for _, s := range d.Solutions {
			if s.Label.ID == id {
				return s, nil
			}
		}
		return nil, fmt.Errorf("bifdiag: no solution with label %d", id)
	}
	cut := strings.IndexFunc(ref, unicode.IsDigit)
	name, nth := ref, 1
	if cut > 0 {
		n, err := strconv.Atoi(ref[cut:])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bifdiag: bad label reference %q", ref)
		}
		name, nth = ref[:cut], n
	}
	seen := 0
	for _, s := range d.Solutions {
		if s.Label.Type.Name() == strings.ToUpper(name) {
			seen++
			if seen == nth {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("bifdiag: no solution %q", ref)
}

// StartSolution picks the restart point for a run seeded from this diagram:
// the solution labeled irs when irs is non-zero, otherwise the last solution.
func (d *Diagram) StartSolution(irs int) (*Solution, error) {
	if d == nil || len(d.Solutions) == 0 {
		return nil, fmt.Errorf("bifdiag: diagram has no solutions")
	}
	if irs == 0 {
		return d.Solutions[len(d.Solutions)-1], nil
	}
	return d.Lookup(strconv.Itoa(irs))
}
