package bifdiag

// Append returns a diagram holding dst's branches followed by src's, and
// dst's solutions followed by src's. Diagnostics travel with their branches,
// so src's text lands after dst's.
func Append(dst, src *Diagram) *Diagram {
	out := dst.Clone()
	if out == nil {
		out = &Diagram{}
	}
	add := src.Clone()
	if add == nil {
		return out
	}
	out.Branches = append(out.Branches, add.Branches...)
	out.Solutions = append(out.Solutions, add.Solutions...)
	return out
}
