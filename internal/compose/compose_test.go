package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoctl/internal/artifact"
	"autoctl/internal/bifdiag"
)

func TestRelabel_Memory(t *testing.T) {
	f := newFixture(t)
	in := sample()

	out, err := f.ws.Relabel(context.Background(), Memory(in), "")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, branchLabels(out))
	assert.Equal(t, []int{1, 2, 3, 4}, solutionLabels(out))
	assert.Equal(t, []int{3, 7, 8, 9}, branchLabels(in), "input untouched")
	assert.Equal(t, "Relabeling done\n", f.info.String())
	assert.NoFileExists(t, f.path("b.ab"))
}

func TestRelabel_NamedInPlace(t *testing.T) {
	f := newFixture(t)
	f.store(t, "ab", sample())
	before := f.read(t, "b.ab")

	_, err := f.ws.Relabel(context.Background(), Named("ab"), "")
	require.NoError(t, err)

	d, err := f.ws.Load(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, branchLabels(d))
	assert.Equal(t, []int{1, 2, 3, 4}, solutionLabels(d))
	assert.Equal(t, before, f.read(t, "b.ab~"))
	assert.FileExists(t, f.path("s.ab~"))
	assert.NoFileExists(t, f.path("d.ab~"), "diagnostics are not rewritten")
	assert.Contains(t, f.info.String(), "Relabeling succeeded\n")
}

func TestRelabel_NamedToOtherCopiesDiagnostics(t *testing.T) {
	f := newFixture(t)
	f.store(t, "ab", sample())
	before := f.read(t, "b.ab")

	_, err := f.ws.Relabel(context.Background(), Named("ab"), "cd")
	require.NoError(t, err)

	assert.Equal(t, before, f.read(t, "b.ab"))
	assert.NoFileExists(t, f.path("b.ab~"))
	assert.Equal(t, f.read(t, "d.ab"), f.read(t, "d.cd"))
	d, err := f.ws.Load(context.Background(), "cd")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, branchLabels(d))
}

func TestMerge_Named(t *testing.T) {
	f := newFixture(t)
	f.store(t, "ab", sample())

	merged, err := f.ws.Merge(context.Background(), Named("ab"), "")
	require.NoError(t, err)
	require.Equal(t, 1, merged.Len())
	assert.Equal(t, 5, merged.Branches[0].Len())

	d, err := f.ws.Load(context.Background(), "ab")
	require.NoError(t, err)
	require.Equal(t, 1, d.Len())
	assert.Len(t, d.Diagnostics(), 2)
	assert.FileExists(t, f.path("b.ab~"))
	assert.FileExists(t, f.path("d.ab~"))
	assert.Contains(t, f.info.String(), "Merging done\n")
}

func TestMerge_MissingName(t *testing.T) {
	f := newFixture(t)
	_, err := f.ws.Merge(context.Background(), Named("nope"), "")
	var fe *artifact.FileIOError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "load", fe.Op)
}

func TestSubtract_NamedRewritesDiagramOnly(t *testing.T) {
	f := newFixture(t)
	f.store(t, "ab", sample())
	f.store(t, "ref", reference())

	_, err := f.ws.Subtract(context.Background(), Named("ab"), Named("ref"), "PAR(1)", 1, 1)
	require.NoError(t, err)

	d, err := f.ws.Load(context.Background(), "ab")
	require.NoError(t, err)
	norm, ok := d.Branches[0].Points[1].Field("L2-NORM")
	require.True(t, ok)
	assert.InDelta(t, 0.5, norm, 1e-12)
	par, _ := d.Branches[0].Points[1].Field("PAR(1)")
	assert.InDelta(t, 0.5, par, 1e-12, "reference column is kept")

	assert.FileExists(t, f.path("b.ab~"))
	assert.NoFileExists(t, f.path("s.ab~"))
	assert.Equal(t, "Subtracting done\n", f.info.String())
}

func TestSubtract_MemoryWithNamedReference(t *testing.T) {
	f := newFixture(t)
	f.store(t, "ref", reference())

	sub, err := f.ws.Subtract(context.Background(), Memory(sample()), Named("ref"), "PAR(1)", 1, 1)
	require.NoError(t, err)
	norm, _ := sub.Branches[1].Points[2].Field("L2-NORM")
	assert.InDelta(t, 2, norm, 1e-12)
	assert.NoFileExists(t, f.path("b.ref~"))
}

func TestSubtract_Errors(t *testing.T) {
	f := newFixture(t)
	f.store(t, "ab", sample())

	_, err := f.ws.Subtract(context.Background(), Named("ab"), Named("nope"), "PAR(1)", 1, 1)
	var fe *artifact.FileIOError
	require.True(t, errors.As(err, &fe), "missing reference is fatal")

	_, err = f.ws.Subtract(context.Background(), Named("ab"), Memory(reference()), "PAR(1)", 3, 1)
	var ie *bifdiag.InterpolationError
	require.True(t, errors.As(err, &ie))
	assert.NoFileExists(t, f.path("b.ab~"), "nothing written on failure")
}

func TestFilterLabels_OutputsDefaultSelector(t *testing.T) {
	f := newFixture(t)
	f.store(t, "", sample())

	_, err := f.ws.DeleteSpecialPoints(context.Background(), Outputs(), Selector{})
	require.NoError(t, err)

	d, err := f.ws.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, branchLabels(d))
	assert.Empty(t, d.Solutions)
	assert.FileExists(t, f.path("fort.7~"))
	assert.FileExists(t, f.path("fort.8~"))
}

func TestKeepLabels_Named(t *testing.T) {
	f := newFixture(t)
	f.store(t, "ab", sample())

	_, err := f.ws.KeepLabels(context.Background(), Named("ab"), Selector{Types: []string{"LP"}})
	require.NoError(t, err)

	d, err := f.ws.Load(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, branchLabels(d))
	assert.Equal(t, []int{7}, solutionLabels(d))
	first := d.Branches[0].Points[0].Label
	assert.True(t, first.Marker(), "dropped EP keeps its type mark")
	assert.Equal(t, bifdiag.TypeEP, first.Type)
}

func TestFilterLabels_MemoryPartition(t *testing.T) {
	f := newFixture(t)
	sel := Selector{IDs: []int{3, 9}}

	deleted, err := f.ws.DeleteSpecialPoints(context.Background(), Memory(sample()), sel)
	require.NoError(t, err)
	kept, err := f.ws.KeepSpecialPoints(context.Background(), Memory(sample()), sel)
	require.NoError(t, err)

	assert.Equal(t, []int{7, 8}, branchLabels(deleted))
	assert.Equal(t, []int{3, 9}, branchLabels(kept))

	marked, err := f.ws.DeleteLabels(context.Background(), Memory(sample()), sel)
	require.NoError(t, err)
	assert.True(t, marked.Branches[0].Points[0].Label.Marker())
}

func TestAppend_Variants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store(t, "ab", sample())

	both, err := f.ws.Append(ctx, Memory(sample()), Memory(reference()))
	require.NoError(t, err)
	assert.Equal(t, 3, both.Len())
	assert.Equal(t, []int{1, 2, 3, 7, 8, 9}, branchLabels(both), "dst branches first")

	fromName, err := f.ws.Append(ctx, Named("ab"), Memory(reference()))
	require.NoError(t, err)
	assert.Equal(t, 3, fromName.Len())
	assert.Contains(t, f.info.String(), "Appending from b.ab, s.ab and d.ab ... done\n")

	_, err = f.ws.Append(ctx, Memory(reference()), Named("all"))
	require.NoError(t, err)
	assert.Contains(t, f.info.String(), "Appending to b.all, s.all and d.all ... done\n")
	all, err := f.ws.Load(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, 1, all.Len())

	_, err = f.ws.Append(ctx, Named("ab"), Named("all"))
	require.NoError(t, err)
	all, err = f.ws.Load(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())
	assert.Contains(t, f.info.String(), "Appending b.ab to b.all ... done\n")

	_, err = f.ws.Append(ctx, Named("missing"), Named("all"))
	var fe *artifact.FileIOError
	require.True(t, errors.As(err, &fe))
}

func TestAppend_OutputsRaw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store(t, "", reference())

	for i := 0; i < 2; i++ {
		_, err := f.ws.Append(ctx, Outputs(), Named("all"))
		require.NoError(t, err)
	}
	assert.Equal(t, f.read(t, "fort.7")+f.read(t, "fort.7"), f.read(t, "b.all"))
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.ws.Save(ctx, Memory(sample()), "x"))
	assert.Contains(t, f.info.String(), "Saving to b.x, s.x, and d.x ... done\n")
	first := f.read(t, "b.x")

	require.NoError(t, f.ws.Save(ctx, Memory(reference()), "x"))
	assert.Equal(t, first, f.read(t, "b.x~"))

	onlySolutions := &bifdiag.Diagram{Solutions: sample().Solutions}
	require.NoError(t, f.ws.Save(ctx, Memory(onlySolutions), "sols"))
	assert.FileExists(t, f.path("s.sols"))
	assert.NoFileExists(t, f.path("b.sols"))
	assert.Contains(t, f.info.String(), "Saving to s.sols ... done\n")

	f.store(t, "", reference())
	require.NoError(t, f.ws.Save(ctx, Outputs(), "run1"))
	assert.Equal(t, f.read(t, "fort.7"), f.read(t, "b.run1"))
	assert.Contains(t, f.info.String(), "Saving fort.7 as b.run1 ... done\n")

	err := f.ws.Save(ctx, Named("missing"), "y")
	var fe *artifact.FileIOError
	require.True(t, errors.As(err, &fe))
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store(t, "ab", sample())

	lines, err := f.ws.Diagnostics(ctx, Named("ab"), "")
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	folds, err := f.ws.Diagnostics(ctx, Named("ab"), "Fold")
	require.NoError(t, err)
	require.Len(t, folds, 1)
	assert.Contains(t, folds[0].Text, "Fold Function")

	eps, err := f.ws.SpecialLabels(ctx, Named("ab"), "EP")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 8, 9}, eps)

	all, err := f.ws.SpecialLabels(ctx, Memory(sample()), "")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7, 8, 9}, all)
}

func TestOperand(t *testing.T) {
	assert.Equal(t, "<outputs>", Outputs().String())
	assert.Equal(t, "ab", Named("ab").String())
	m := Memory(nil)
	assert.True(t, m.IsMemory())
	assert.NotNil(t, m.Diagram())
	assert.Equal(t, "<memory>", m.String())
}
