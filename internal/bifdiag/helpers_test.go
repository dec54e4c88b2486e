package bifdiag

// row builds a branch point with the columns PAR(1) and L2-NORM.
func row(br, pt int, ty TypeCode, lab int, par, norm float64) *Solution {
	return &Solution{
		Label:   Label{ID: lab, Type: ty, Branch: br, Point: pt},
		Columns: []Field{{Name: "PAR(1)", Value: par}, {Name: "L2-NORM", Value: norm}},
	}
}

// line builds a branch whose points lie on L2-NORM = slope*PAR(1).
func line(number int, slope float64, pars ...float64) *Branch {
	b := &Branch{Number: number, Columns: []string{"PAR(1)", "L2-NORM"}}
	for i, x := range pars {
		b.Points = append(b.Points, row(number, i+1, TypeNone, 0, x, slope*x))
	}
	return b
}

func single(b *Branch) *Diagram {
	return &Diagram{Branches: []*Branch{b}}
}
