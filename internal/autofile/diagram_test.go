package autofile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoctl/internal/bifdiag"
)

// memStager writes staged content straight to disk.
type memStager struct {
	staged map[string]bool
}

func (m *memStager) Stage(path string, allowEmpty bool, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if m.staged == nil {
		m.staged = make(map[string]bool)
	}
	m.staged[path] = allowEmpty
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func writeFixture(t *testing.T, dir string) Paths {
	t.Helper()
	p := Paths{
		Diagram:     filepath.Join(dir, "b.ab"),
		Solution:    filepath.Join(dir, "s.ab"),
		Diagnostics: filepath.Join(dir, "d.ab"),
	}
	require.NoError(t, os.WriteFile(p.Diagram, []byte(abDiagram), 0644))
	var buf bytes.Buffer
	sols := []*bifdiag.Solution{
		{Label: bifdiag.Label{ID: 1, Type: bifdiag.TypeEP, Branch: 1, Point: 1}, Profile: [][]float64{{0, 0}}, Params: []float64{0}},
		{Label: bifdiag.Label{ID: 2, Type: bifdiag.TypeLP, Branch: 1, Point: 3}, Profile: [][]float64{{0, 0.2}}, Params: []float64{0.1}},
		{Label: bifdiag.Label{ID: 5, Type: bifdiag.TypeEP, Branch: 3, Point: 1}, Profile: [][]float64{{0, 0.3}}, Params: []float64{0.5}},
	}
	require.NoError(t, EncodeSolutions(&buf, sols))
	require.NoError(t, os.WriteFile(p.Solution, buf.Bytes(), 0644))
	require.NoError(t, os.WriteFile(p.Diagnostics, []byte("   1    1  Eigenvalue 1: -1\n   2    1  Hopf Function 0.1\n   3    1  NOTE done\n"), 0644))
	return p
}

func TestLoadDiagram(t *testing.T) {
	p := writeFixture(t, t.TempDir())

	d, err := LoadDiagram(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
	require.Len(t, d.Solutions, 3)

	lp, err := d.Lookup("LP1")
	require.NoError(t, err)
	norm, ok := lp.Field("L2-NORM")
	require.True(t, ok, "solution picks up its branch row columns")
	assert.Equal(t, 0.2, norm)
	ndim, _ := lp.Constants.Int("NDIM")
	assert.Equal(t, 2, ndim)

	assert.Len(t, d.Query("Hopf"), 1)
	assert.Equal(t, 2, d.Query("Hopf")[0].Branch)
	assert.Len(t, d.Branches[1].Diagnostics, 1)
}

func TestLoadDiagram_PartialAndMissing(t *testing.T) {
	dir := t.TempDir()
	p := writeFixture(t, dir)
	require.NoError(t, os.Remove(p.Solution))

	d, err := LoadDiagram(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, d.Solutions)
	assert.Equal(t, 3, d.Len())

	_, err = LoadDiagram(context.Background(), Paths{Diagram: filepath.Join(dir, "b.none"), Solution: filepath.Join(dir, "s.none")})
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadDiagram_ParseError(t *testing.T) {
	dir := t.TempDir()
	p := Paths{Diagram: filepath.Join(dir, "b.bad")}
	require.NoError(t, os.WriteFile(p.Diagram, []byte("1 1 0 0 1.0\n"), 0644))
	_, err := LoadDiagram(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.bad")
}

func TestWriteDiagram_RoundTrip(t *testing.T) {
	src := writeFixture(t, t.TempDir())
	d, err := LoadDiagram(context.Background(), src)
	require.NoError(t, err)

	dir := t.TempDir()
	dst := Paths{
		Diagram:     filepath.Join(dir, "b.copy"),
		Solution:    filepath.Join(dir, "s.copy"),
		Diagnostics: filepath.Join(dir, "d.copy"),
	}
	st := &memStager{}
	require.NoError(t, WriteDiagram(st, dst, d))
	assert.False(t, st.staged[dst.Diagram])
	assert.True(t, st.staged[dst.Solution])
	assert.True(t, st.staged[dst.Diagnostics])

	back, err := LoadDiagram(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, d.Len(), back.Len())
	assert.Equal(t, d.Points(), back.Points())
	assert.Equal(t, len(d.Solutions), len(back.Solutions))
	assert.Equal(t, len(d.Diagnostics()), len(back.Diagnostics()))
	for i := range d.Branches {
		assert.Equal(t, d.Branches[i].Diagnostics, back.Branches[i].Diagnostics)
	}
}

func TestJoin_UnknownBranchDiagnostics(t *testing.T) {
	branches, err := ParseBranches(strings.NewReader(abDiagram))
	require.NoError(t, err)
	sections := []DiagnosticSection{
		{Branch: 1, Lines: []bifdiag.DiagnosticLine{{Branch: 1, Point: 1, Text: "first"}}},
		{Branch: 7, Lines: []bifdiag.DiagnosticLine{{Branch: 7, Point: 1, Text: "stray"}}},
	}

	d := Join(branches, nil, sections)
	require.Equal(t, 3, d.Len(), "no branch is invented for an unknown number")
	for _, b := range d.Branches {
		assert.NotZero(t, b.Len())
	}
	assert.Equal(t, "first", d.Branches[0].Diagnostics[0].Text)
	last := d.Branches[2]
	require.Len(t, last.Diagnostics, 1)
	assert.Equal(t, "stray", last.Diagnostics[0].Text)

	empty := Join(nil, nil, sections)
	assert.Zero(t, empty.Len())
	assert.Empty(t, empty.Diagnostics())
}
