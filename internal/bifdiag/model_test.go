package bifdiag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeCode_Names(t *testing.T) {
	assert.Equal(t, "LP", TypeLP.Name())
	assert.Equal(t, "LP", TypeLPPeriodic.Name())
	assert.Equal(t, "BP", TypeBPPeriodic.Name())
	assert.Equal(t, "UZ", TypeUZ.Name())
	assert.Equal(t, "MX", TypeMX.Name())
	assert.Equal(t, "", TypeNone.Name())
	assert.Equal(t, "--", TypeNone.String())
	assert.Equal(t, "TY12", TypeCode(12).Name())

	for _, name := range SpecialTypes {
		code, err := ParseTypeName(name)
		require.NoError(t, err)
		assert.Equal(t, name, code.Name())
	}
	_, err := ParseTypeName("XX")
	assert.Error(t, err)
}

func TestDiagram_Lookup(t *testing.T) {
	d := mixed()

	s, err := d.Lookup("4")
	require.NoError(t, err)
	assert.Equal(t, TypeHB, s.Label.Type)

	s, err = d.Lookup("EP2")
	require.NoError(t, err)
	assert.Equal(t, 6, s.Label.ID)

	s, err = d.Lookup("lp")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Label.ID)

	_, err = d.Lookup("EP3")
	assert.Error(t, err)
	_, err = d.Lookup("99")
	assert.Error(t, err)

	assert.Equal(t, []int{1, 6}, d.Labels("EP"))
}

func TestDiagram_StartSolution(t *testing.T) {
	d := mixed()
	s, err := d.StartSolution(0)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Label.ID)

	s, err = d.StartSolution(3)
	require.NoError(t, err)
	assert.Equal(t, TypeUZ, s.Label.Type)

	_, err = (&Diagram{}).StartSolution(0)
	assert.Error(t, err)
}

func TestDiagram_Query(t *testing.T) {
	d := single(line(1, 1, 0, 1))
	d.Branches[0].Diagnostics = []DiagnosticLine{
		{Branch: 1, Point: 1, Text: "   1    1  Eigenvalue  1: -1.0E+00  0.0E+00"},
		{Branch: 1, Point: 2, Text: "   1    2  Fold Function  1.2E-03"},
		{Branch: 1, Point: 2, Text: "NOTE:Retrying step"},
	}
	assert.Len(t, d.Query("Eigenvalue"), 1)
	assert.Len(t, d.Query("Fold"), 1)
	assert.Equal(t, "NOTE", d.Query("NOTE")[0].Keyword())
	assert.Empty(t, d.Query("Hopf"))
}

func TestSolution_Field(t *testing.T) {
	s := &Solution{
		Columns: []Field{{Name: "L2-NORM", Value: 3}},
		Params:  []float64{0.5, 7},
		Profile: [][]float64{{0, 1.5, 2.5}},
	}
	v, ok := s.Field("L2-NORM")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = s.Field("PAR(2)")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	v, ok = s.Field("U(2)")
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	_, ok = s.Field("U(3)")
	assert.False(t, ok)
	assert.Equal(t, 2, s.Dimension())

	c := s.Clone()
	c.Profile[0][1] = 99
	assert.Equal(t, 1.5, s.Profile[0][1])
}

func TestBranch_Validate(t *testing.T) {
	b := line(1, 1, 0, 1, 2)
	require.NoError(t, b.Validate())
	b.Points[2].Label.Point = 2
	assert.Error(t, b.Validate())
}

func TestConstants(t *testing.T) {
	c := NewConstants()
	c.Set("NDIM", 2)
	c.Set("DS", 0.01)
	c.Set("ICP", []any{1, 11})
	assert.Equal(t, []string{"NDIM", "DS", "ICP"}, c.Keys())

	c.Set("DS", "-")
	ds, _ := c.Float("DS")
	assert.Equal(t, -0.01, ds)
	c.Set("DS", "+")
	ds, _ = c.Float("DS")
	assert.Equal(t, -0.01, ds)

	clone := c.Clone()
	clone.Set("NDIM", 3)
	clone.Delete("ICP")
	n, _ := c.Int("NDIM")
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"NDIM", "DS"}, clone.Keys())

	c.Merge(clone)
	n, _ = c.Int("NDIM")
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, c.Len())

	empty := NewConstants()
	empty.Set("DS", "-")
	assert.Equal(t, 0, empty.Len())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "2", FormatValue(2))
	assert.Equal(t, "1.0", FormatValue(1.0))
	assert.Equal(t, "0.001", FormatValue(0.001))
	assert.Equal(t, `"ab"`, FormatValue("ab"))
	assert.Equal(t, "[1, 11]", FormatValue([]any{1, 11}))
	assert.Equal(t, "{a: 1, b: [2]}", FormatValue(map[string]any{"b": []any{2}, "a": 1}))
	assert.Equal(t, "None", FormatValue(nil))
}
