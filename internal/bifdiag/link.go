package bifdiag

// rowKey identifies a labeled point by branch number and label.
type rowKey struct{ branch, id int }

// attach pairs each labeled branch row of d with its entry in the solution
// list. Rows and solutions match on branch number and label; a pair that
// repeats, as after appending two runs, matches in order of appearance.
func attach(d *Diagram) map[*Solution]*Solution {
	pool := make(map[rowKey][]*Solution)
	for _, s := range d.Solutions {
		if s.Label.Labeled() {
			k := rowKey{s.Label.Branch, s.Label.ID}
			pool[k] = append(pool[k], s)
		}
	}
	links := make(map[*Solution]*Solution)
	for _, b := range d.Branches {
		for _, p := range b.Points {
			if !p.Label.Labeled() {
				continue
			}
			k := rowKey{p.Label.Branch, p.Label.ID}
			if q := pool[k]; len(q) > 0 {
				links[p] = q[0]
				pool[k] = q[1:]
			}
		}
	}
	return links
}

// attached returns the set of solutions some row links to.
func attached(links map[*Solution]*Solution) map[*Solution]bool {
	set := make(map[*Solution]bool, len(links))
	for _, s := range links {
		set[s] = true
	}
	return set
}
