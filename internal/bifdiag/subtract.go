package bifdiag

import (
	"fmt"
	"math"
)

// Subtract returns a copy of d where, for every branch point, the reference
// branch interpolated at the point's own value of column is subtracted from
// every other column the point shares with the reference.
//
// The interpolant is built from ref starting at startPoint (1-based) and
// truncated to the earliest maximal strictly monotonic run of column values;
// repeated values at the very start collapse into the run's first point.
// Points whose column value falls outside that run are copied unchanged.
// The solution list is not touched.
func Subtract(d *Diagram, ref *Branch, column string, startPoint int) (*Diagram, error) {
	if startPoint < 1 {
		startPoint = 1
	}
	if ref == nil || startPoint > ref.Len() {
		return nil, &InterpolationError{Column: column, Err: ErrDegenerateReference}
	}
	tail := &Branch{Columns: ref.Columns, Points: ref.Points[startPoint-1:]}
	xs, ok := tail.Column(column)
	if !ok {
		return nil, &InterpolationError{Column: column, Points: tail.Len(),
			Err: fmt.Errorf("column %q missing from reference branch", column)}
	}
	first, n := monotoneRun(xs)
	if n < 2 {
		return nil, &InterpolationError{Column: column, Points: n, Err: ErrDegenerateReference}
	}
	ip := &interpolant{
		xs:     xs[first : first+n],
		points: tail.Points[first : first+n],
	}

	out := d.Clone()
	for _, b := range out.Branches {
		for _, p := range b.Points {
			x, has := p.Field(column)
			if !has {
				continue
			}
			lo, hi, t, inside := ip.locate(x)
			if !inside {
				continue
			}
			for i := range p.Columns {
				name := p.Columns[i].Name
				if name == column {
					continue
				}
				a, okA := lo.Field(name)
				c, okC := hi.Field(name)
				if !okA || !okC {
					continue
				}
				p.Columns[i].Value -= a + t*(c-a)
			}
		}
	}
	return out, nil
}

// monotoneRun returns the start index and length of the earliest maximal
// strictly monotonic run in xs. Leading repeats are skipped so the run starts
// at the last of them.
func monotoneRun(xs []float64) (start, n int) {
	if len(xs) == 0 {
		return 0, 0
	}
	for start < len(xs)-1 && xs[start+1] == xs[start] {
		start++
	}
	if start == len(xs)-1 {
		return start, 1
	}
	increasing := xs[start+1] > xs[start]
	n = 2
	for i := start + 2; i < len(xs); i++ {
		if increasing && xs[i] > xs[i-1] || !increasing && xs[i] < xs[i-1] {
			n++
			continue
		}
		break
	}
	return start, n
}

// interpolant is a piecewise linear map keyed by a strictly monotonic
// sequence of reference values.
type interpolant struct {
	xs     []float64
	points []*Solution
}

// locate returns the segment endpoints around x and the fractional position
// within it. inside is false when x lies outside the covered range.
func (ip *interpolant) locate(x float64) (lo, hi *Solution, t float64, inside bool) {
	n := len(ip.xs)
	minX := math.Min(ip.xs[0], ip.xs[n-1])
	maxX := math.Max(ip.xs[0], ip.xs[n-1])
	if math.IsNaN(x) || x < minX || x > maxX {
		return nil, nil, 0, false
	}
	for k := 0; k < n-1; k++ {
		x0, x1 := ip.xs[k], ip.xs[k+1]
		if (x >= math.Min(x0, x1)) && (x <= math.Max(x0, x1)) {
			return ip.points[k], ip.points[k+1], (x - x0) / (x1 - x0), true
		}
	}
	return nil, nil, 0, false
}
