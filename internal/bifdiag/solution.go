package bifdiag

import (
	"sort"
	"strconv"
	"strings"
)

// Field is one named scalar column of a branch point.
type Field struct {
	Name  string
	Value float64
}

// Solution is one continuation point. On a Branch it is a row of the
// diagram file; in a Diagram's solution list it additionally carries the
// full profile read from the solution file.
//
// Solutions are treated as immutable once produced: every transformation in
// this package works on a Clone.
type Solution struct {
	Label  Label
	Stable bool

	// Columns are the named scalar values of a diagram row, in file order.
	Columns []Field

	// Params holds PAR(1..n).
	Params []float64

	// Profile holds the state array, one row per mesh point: t, U(1), U(2)...
	Profile [][]float64

	// Derivatives holds the direction vector rows (U'(1), U'(2)...) for
	// boundary value problems.
	Derivatives [][]float64

	// FreeParams lists the active continuation parameter indices (ICP).
	FreeParams []int

	NTST int
	NCOL int
	ISW  int

	// Constants refers to the configuration that produced this point.
	Constants *Constants
}

// Clone returns a deep copy. The Constants back-reference is shared because
// configurations are never mutated through a solution.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	out := *s
	out.Columns = append([]Field(nil), s.Columns...)
	out.Params = append([]float64(nil), s.Params...)
	out.FreeParams = append([]int(nil), s.FreeParams...)
	out.Profile = cloneRows(s.Profile)
	out.Derivatives = cloneRows(s.Derivatives)
	return &out
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

// Field resolves a named scalar. Column names are tried first, then
// PAR(i) against Params and U(i) against the first profile row.
func (s *Solution) Field(name string) (float64, bool) {
	for _, f := range s.Columns {
		if f.Name == name {
			return f.Value, true
		}
	}
	if idx, ok := indexedName(name, "PAR"); ok && idx >= 1 && idx <= len(s.Params) {
		return s.Params[idx-1], true
	}
	if idx, ok := indexedName(name, "U"); ok && len(s.Profile) > 0 && idx >= 1 && idx < len(s.Profile[0]) {
		return s.Profile[0][idx], true
	}
	return 0, false
}

// SetField overwrites a named column, adding it when missing.
func (s *Solution) SetField(name string, value float64) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			s.Columns[i].Value = value
			return
		}
	}
	s.Columns = append(s.Columns, Field{Name: name, Value: value})
}

// Dimension returns the number of state components (NAR-1 for profiles).
func (s *Solution) Dimension() int {
	if len(s.Profile) == 0 {
		return 0
	}
	return len(s.Profile[0]) - 1
}

// indexedName parses names of the form PREFIX(i).
func indexedName(name, prefix string) (int, bool) {
	name = strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if !strings.HasPrefix(name, prefix+"(") || !strings.HasSuffix(name, ")") {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(prefix)+1 : len(name)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
