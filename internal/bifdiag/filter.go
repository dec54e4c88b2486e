package bifdiag

import "strings"

// Selector picks labeled points by label number or by type name. An empty
// selector picks SpecialTypes.
type Selector struct {
	IDs   []int
	Types []string
}

// Empty reports whether neither IDs nor Types are set.
func (s Selector) Empty() bool { return len(s.IDs) == 0 && len(s.Types) == 0 }

func (s Selector) matches(l Label) bool {
	if !l.Labeled() {
		return false
	}
	for _, id := range s.IDs {
		if id == l.ID {
			return true
		}
	}
	name := l.Type.Name()
	for _, t := range s.Types {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

func (s Selector) orDefault() Selector {
	if s.Empty() {
		return Selector{Types: SpecialTypes}
	}
	return s
}

// FilterLabels returns a copy of d with some labeled points removed. With
// keepListed false the selected points are removed; with keepListed true
// every labeled point that is not selected is removed.
//
// A removed point loses its solution list entry and its label number. With
// keepTypeOnly its branch row keeps the type code as a zero-weight marker,
// otherwise the row becomes a regular point.
func FilterLabels(d *Diagram, sel Selector, keepTypeOnly, keepListed bool) *Diagram {
	sel = sel.orDefault()
	drop := func(l Label) bool {
		if !l.Labeled() {
			return false
		}
		return sel.matches(l) != keepListed
	}

	out := d.Clone()
	if out == nil {
		return nil
	}
	for _, b := range out.Branches {
		for _, p := range b.Points {
			if !drop(p.Label) {
				continue
			}
			p.Label.ID = 0
			if !keepTypeOnly {
				p.Label.Type = TypeNone
			}
		}
	}
	kept := out.Solutions[:0]
	for _, s := range out.Solutions {
		if !drop(s.Label) {
			kept = append(kept, s)
		}
	}
	out.Solutions = kept
	return out
}
