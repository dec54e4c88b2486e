package bifdiag

import (
	"fmt"
	"strings"
)

// DiagnosticLine is one line of solver diagnostics (d.xxx) attributed to a
// branch and, when the line carries one, a point number.
type DiagnosticLine struct {
	Branch int
	Point  int
	Text   string
}

// diagnosticKeywords are the tags the solver prints in its diagnostics.
var diagnosticKeywords = []string{"Eigenvalue", "Multiplier", "Mult", "Fold", "Hopf", "BP", "SPB", "Iterations", "Step", "NOTE"}

// Keyword returns the first known diagnostic tag contained in the line, or
// "" when the line is untagged.
func (l DiagnosticLine) Keyword() string {
	for _, k := range diagnosticKeywords {
		if strings.Contains(l.Text, k) {
			return k
		}
	}
	return ""
}

// Branch is the ordered sequence of points produced by one continuation run.
type Branch struct {
	// Number is the branch number (BR) reported by the solver.
	Number int
	// Columns names the scalar columns every point carries.
	Columns []string
	Points  []*Solution
	// Constants is the configuration used to produce the branch.
	Constants   *Constants
	Diagnostics []DiagnosticLine
}

// Len returns the number of points.
func (b *Branch) Len() int { return len(b.Points) }

// Clone returns a deep copy of the branch and its points.
func (b *Branch) Clone() *Branch {
	if b == nil {
		return nil
	}
	out := &Branch{
		Number:      b.Number,
		Columns:     append([]string(nil), b.Columns...),
		Points:      make([]*Solution, len(b.Points)),
		Constants:   b.Constants,
		Diagnostics: append([]DiagnosticLine(nil), b.Diagnostics...),
	}
	for i, p := range b.Points {
		out.Points[i] = p.Clone()
	}
	return out
}

// Column returns the values of a named column across the branch. Points that
// lack the field are reported through ok=false.
func (b *Branch) Column(name string) (values []float64, ok bool) {
	values = make([]float64, len(b.Points))
	for i, p := range b.Points {
		v, has := p.Field(name)
		if !has {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// Labeled returns the labeled points in order.
func (b *Branch) Labeled() []*Solution {
	var out []*Solution
	for _, p := range b.Points {
		if p.Label.Labeled() {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the ordinal invariant: point positions strictly increase.
func (b *Branch) Validate() error {
	prev := 0
	for i, p := range b.Points {
		if p.Label.Point <= prev {
			return fmt.Errorf("bifdiag: branch %d: point %d has ordinal %d after %d", b.Number, i, p.Label.Point, prev)
		}
		prev = p.Label.Point
	}
	return nil
}

// renumber assigns ordinals 1..n and the branch number to every point.
func (b *Branch) renumber() {
	for i, p := range b.Points {
		p.Label.Point = i + 1
		p.Label.Branch = b.Number
	}
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
