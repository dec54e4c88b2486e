package bifdiag

// Relabel returns a copy of d whose labeled points are numbered 1..N in
// branch order then point order. Every solution takes the new number of the
// branch row it belongs to; solutions without a row are numbered after the
// rows in list order. Type codes and unlabeled rows are left alone.
func Relabel(d *Diagram) *Diagram {
	out := d.Clone()
	links := attach(out)
	next := 1
	for _, b := range out.Branches {
		for _, p := range b.Points {
			if !p.Label.Labeled() {
				continue
			}
			p.Label.ID = next
			if s, ok := links[p]; ok {
				s.Label.ID = next
			}
			next++
		}
	}
	linked := attached(links)
	for _, s := range out.Solutions {
		if !linked[s] {
			s.Label.ID = next
			next++
		}
	}
	return out
}
