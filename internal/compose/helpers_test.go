package compose

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"autoctl/internal/artifact"
	"autoctl/internal/autofile"
	"autoctl/internal/bifdiag"
)

func point(br, pt int, ty bifdiag.TypeCode, lab int, par, norm float64) *bifdiag.Solution {
	return &bifdiag.Solution{
		Label:   bifdiag.Label{ID: lab, Type: ty, Branch: br, Point: pt},
		Columns: []bifdiag.Field{{Name: "PAR(1)", Value: par}, {Name: "L2-NORM", Value: norm}},
	}
}

func solution(br, pt int, ty bifdiag.TypeCode, lab int) *bifdiag.Solution {
	return &bifdiag.Solution{
		Label:      bifdiag.Label{ID: lab, Type: ty, Branch: br, Point: pt},
		Profile:    [][]float64{{0, float64(lab)}},
		FreeParams: []int{1},
		Params:     []float64{float64(lab)},
	}
}

// sample is one continuation split over two runs of branch 1 that meet at
// PAR(1)=1.
func sample() *bifdiag.Diagram {
	columns := []string{"PAR(1)", "L2-NORM"}
	return &bifdiag.Diagram{
		Branches: []*bifdiag.Branch{
			{
				Number:  1,
				Columns: columns,
				Points: []*bifdiag.Solution{
					point(1, 1, bifdiag.TypeEP, 3, 0, 0),
					point(1, 2, bifdiag.TypeNone, 0, 0.5, 1),
					point(1, 3, bifdiag.TypeLP, 7, 1, 2),
				},
				Diagnostics: []bifdiag.DiagnosticLine{{Branch: 1, Point: 3, Text: "   1    3  Fold Function 0.0"}},
			},
			{
				Number:  1,
				Columns: columns,
				Points: []*bifdiag.Solution{
					point(1, 1, bifdiag.TypeEP, 8, 1, 2),
					point(1, 2, bifdiag.TypeNone, 0, 1.5, 3),
					point(1, 3, bifdiag.TypeEP, 9, 2, 4),
				},
				Diagnostics: []bifdiag.DiagnosticLine{{Branch: 1, Point: 2, Text: "   1    2  Eigenvalue 1: -1.0"}},
			},
		},
		Solutions: []*bifdiag.Solution{
			solution(1, 1, bifdiag.TypeEP, 3),
			solution(1, 3, bifdiag.TypeLP, 7),
			solution(1, 1, bifdiag.TypeEP, 8),
			solution(1, 3, bifdiag.TypeEP, 9),
		},
	}
}

// reference has L2-NORM equal to PAR(1) on [0, 2].
func reference() *bifdiag.Diagram {
	return &bifdiag.Diagram{Branches: []*bifdiag.Branch{{
		Number:  1,
		Columns: []string{"PAR(1)", "L2-NORM"},
		Points: []*bifdiag.Solution{
			point(1, 1, bifdiag.TypeEP, 1, 0, 0),
			point(1, 2, bifdiag.TypeEP, 2, 2, 2),
		},
	}}}
}

type fixture struct {
	dir  string
	ws   *Workspace
	info *strings.Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	n, err := artifact.NewNamer(dir, nil)
	require.NoError(t, err)
	info := &strings.Builder{}
	return &fixture{dir: dir, ws: New(n, func(s string) { info.WriteString(s) }), info: info}
}

func (f *fixture) path(name string) string { return filepath.Join(f.dir, name) }

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(f.path(name))
	require.NoError(t, err)
	return string(data)
}

// store writes d under name ("" for the solver outputs).
func (f *fixture) store(t *testing.T, name string, d *bifdiag.Diagram) {
	t.Helper()
	p := f.ws.Namer.Set(name).Paths()
	var b, s, dd bytes.Buffer
	require.NoError(t, autofile.EncodeBranches(&b, d.Branches))
	require.NoError(t, autofile.EncodeSolutions(&s, d.Solutions))
	require.NoError(t, autofile.EncodeDiagnostics(&dd, d.Branches))
	require.NoError(t, os.WriteFile(p.Diagram, b.Bytes(), 0644))
	require.NoError(t, os.WriteFile(p.Solution, s.Bytes(), 0644))
	require.NoError(t, os.WriteFile(p.Diagnostics, dd.Bytes(), 0644))
}

func branchLabels(d *bifdiag.Diagram) []int {
	var out []int
	for _, b := range d.Branches {
		for _, p := range b.Labeled() {
			out = append(out, p.Label.ID)
		}
	}
	return out
}

func solutionLabels(d *bifdiag.Diagram) []int {
	var out []int
	for _, s := range d.Solutions {
		out = append(out, s.Label.ID)
	}
	return out
}
