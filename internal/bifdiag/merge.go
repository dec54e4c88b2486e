package bifdiag

import "math"

// mergeTolerance is the relative tolerance used to decide that two branch
// points are the same solution.
const mergeTolerance = 1e-9

// Merge returns a copy of d in which consecutive branches that trace one
// continuous curve are joined into a single branch.
//
// Two neighbours are joined when they carry the same branch number and
// columns and share a boundary point:
//
//	A.last  == B.first   A + B[1:]            (run continued)
//	A.first == B.first   reverse(A) + B[1:]   (run in both directions)
//	A.last  == B.last    A + reverse(B)[1:]
//
// The shared point appears once, taken from A. Joined branches get ordinals
// 1..n and their diagnostics concatenated in the same order.
//
// The solution list follows the merged rows: each row's solution moves with
// it, a solution whose row was dropped as a shared point is removed, and
// solutions with no row are kept at the end in their original order.
func Merge(d *Diagram) *Diagram {
	if d == nil {
		return nil
	}
	src := d.Clone()
	links := attach(src)

	out := &Diagram{}
	var cur *Branch
	for _, next := range src.Branches {
		if cur != nil {
			if joined, ok := joinBranches(cur, next); ok {
				cur = joined
				continue
			}
			out.Branches = append(out.Branches, cur)
		}
		cur = next
	}
	if cur != nil {
		out.Branches = append(out.Branches, cur)
	}

	for _, b := range out.Branches {
		for _, p := range b.Points {
			if s, ok := links[p]; ok {
				s.Label.Branch = p.Label.Branch
				s.Label.Point = p.Label.Point
				out.Solutions = append(out.Solutions, s)
			}
		}
	}
	linked := attached(links)
	for _, s := range src.Solutions {
		if !linked[s] {
			out.Solutions = append(out.Solutions, s)
		}
	}
	return out
}

func joinBranches(a, b *Branch) (*Branch, bool) {
	if a.Number != b.Number || !sameColumns(a.Columns, b.Columns) || a.Len() == 0 || b.Len() == 0 {
		return nil, false
	}
	var points []*Solution
	switch {
	case samePoint(a.Points[a.Len()-1], b.Points[0]):
		points = append(append(points, a.Points...), b.Points[1:]...)
	case samePoint(a.Points[0], b.Points[0]):
		points = append(reversed(a.Points), b.Points[1:]...)
	case samePoint(a.Points[a.Len()-1], b.Points[b.Len()-1]):
		points = append(append(points, a.Points...), reversed(b.Points)[1:]...)
	default:
		return nil, false
	}
	joined := &Branch{
		Number:      a.Number,
		Columns:     append([]string(nil), a.Columns...),
		Points:      points,
		Constants:   a.Constants,
		Diagnostics: append(append([]DiagnosticLine(nil), a.Diagnostics...), b.Diagnostics...),
	}
	joined.renumber()
	return joined, true
}

func reversed(points []*Solution) []*Solution {
	out := make([]*Solution, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func samePoint(p, q *Solution) bool {
	if len(p.Columns) != len(q.Columns) || len(p.Columns) == 0 {
		return false
	}
	for i := range p.Columns {
		if !closeEnough(p.Columns[i].Value, q.Columns[i].Value) {
			return false
		}
	}
	return true
}

func closeEnough(x, y float64) bool {
	scale := math.Max(1, math.Max(math.Abs(x), math.Abs(y)))
	return math.Abs(x-y) <= mergeTolerance*scale
}
