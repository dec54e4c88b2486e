package runner

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoctl/internal/autofile"
	"autoctl/internal/bifdiag"
)

func writeSolutions(t *testing.T, dir, name string, ids ...int) {
	t.Helper()
	var sols []*bifdiag.Solution
	for i, id := range ids {
		sols = append(sols, &bifdiag.Solution{
			Label:      bifdiag.Label{ID: id, Type: bifdiag.TypeEP, Branch: 1, Point: i + 1},
			Profile:    [][]float64{{0, float64(id)}},
			FreeParams: []int{1},
			Params:     []float64{float64(id) / 10},
		})
	}
	var buf bytes.Buffer
	require.NoError(t, autofile.EncodeSolutions(&buf, sols))
	writeFile(t, dir, name, buf.String(), 0644)
}

func TestConfigure_NameFillsMissingRoles(t *testing.T) {
	f := newFixture(t, "", Config{})
	writeFile(t, f.dir, "c.ab", "NDIM = 2\nDS = 0.01\n", 0644)
	writeFile(t, f.dir, "c.other", "NDIM = 3\n", 0644)

	cfg, err := f.runner.Configure(StartName("ab"), Options{Files: map[Role]FileValue{RoleConstants: Named("other")}})
	require.NoError(t, err)

	assert.Equal(t, "ab", cfg.Equation)
	ndim, _ := cfg.Constants.Int("NDIM")
	assert.Equal(t, 3, ndim, "explicit role beats the name")
	assert.Equal(t, "Runner configured\n", f.info.String())

	current := f.runner.Config()
	ndim, _ = current.Constants.Int("NDIM")
	assert.Equal(t, 3, ndim)
}

func TestConfigure_NoFiles(t *testing.T) {
	f := newFixture(t, "", Config{})
	f.runner.config.Constants.Set("NDIM", 4)

	_, err := f.runner.Configure(StartName("zz"), Options{})
	require.ErrorIs(t, err, ErrNoFiles)
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))

	cfg := f.runner.Config()
	assert.Equal(t, "ab", cfg.Equation, "runner unchanged after a failed configure")
	ndim, _ := cfg.Constants.Int("NDIM")
	assert.Equal(t, 4, ndim)
}

func TestConfigure_MissingFilesToleratedWithEquationSource(t *testing.T) {
	f := newFixture(t, "", Config{})
	writeFile(t, f.dir, "zz.f90", "program zz\n", 0644)

	cfg, err := f.runner.Configure(StartName("zz"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "zz", cfg.Equation)
	assert.Nil(t, cfg.Solution)
}

func TestConfigure_MissingConstantsKeepsCurrent(t *testing.T) {
	f := newFixture(t, "", Config{})
	f.runner.config.Constants.Set("NDIM", 3)
	writeSolutions(t, f.dir, "s.ab", 1)

	cfg, err := f.runner.Configure(StartName("ab"), Options{})
	require.NoError(t, err)
	ndim, _ := cfg.Constants.Int("NDIM")
	assert.Equal(t, 3, ndim)
	require.NotNil(t, cfg.Solution)
	assert.Equal(t, 1, cfg.Solution.Label.ID)
}

func TestConfigure_BadConstantsFile(t *testing.T) {
	f := newFixture(t, "", Config{})
	writeFile(t, f.dir, "c.ab", "NDIM = [1, \n", 0644)

	_, err := f.runner.Configure(StartName("ab"), Options{})
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, RoleConstants, cerr.Role)
	assert.Equal(t, filepath.Join(f.dir, "c.ab"), cerr.Name)
}

func TestConfigure_HomContSettings(t *testing.T) {
	f := newFixture(t, "", Config{})
	writeFile(t, f.dir, "c.ab", "NDIM = 2\n", 0644)
	writeFile(t, f.dir, "h.ab", "NUNSTAB = 1\nNSTAB = 1\n", 0644)

	cfg, err := f.runner.Configure(StartName("ab"), Options{}.Set("NUNSTAB", 2).Set("NMX", 50))
	require.NoError(t, err)
	unstab, _ := cfg.HomCont.Int("NUNSTAB")
	assert.Equal(t, 2, unstab)
	_, inConstants := cfg.Constants.Get("NUNSTAB")
	assert.False(t, inConstants)
	nmx, _ := cfg.Constants.Int("NMX")
	assert.Equal(t, 50, nmx)
}

func TestConfigure_RunnerStart(t *testing.T) {
	f := newFixture(t, "", Config{})
	other := New(f.runner.Namer(), Config{Equation: "other"})

	_, err := f.runner.Configure(StartRunner(other), Options{}.Set("NMX", 5))
	require.NoError(t, err)

	nmx, ok := other.Config().Constants.Int("NMX")
	require.True(t, ok)
	assert.Equal(t, 5, nmx)
	_, ok = f.runner.Config().Constants.Get("NMX")
	assert.False(t, ok)
}

func TestLoad_SolutionStart(t *testing.T) {
	f := newFixture(t, "", Config{})
	c := bifdiag.NewConstants()
	c.Set("DS", 0.1)
	start := &bifdiag.Solution{Label: bifdiag.Label{ID: 3, Type: bifdiag.TypeLP}, Constants: c}

	sol, err := f.runner.Load(StartSolution(start), Options{}.Set("DS", "-"))
	require.NoError(t, err)

	ds, _ := sol.Constants.Float("DS")
	assert.Equal(t, -0.1, ds)
	assert.Equal(t, 3, sol.Label.ID)
	orig, _ := c.Float("DS")
	assert.Equal(t, 0.1, orig, "caller's constants are cloned")
}

func TestLoad_DiagramStartUsesScratchRunner(t *testing.T) {
	f := newFixture(t, "", Config{})
	d := &bifdiag.Diagram{Solutions: []*bifdiag.Solution{
		{Label: bifdiag.Label{ID: 1, Type: bifdiag.TypeEP}},
		{Label: bifdiag.Label{ID: 2, Type: bifdiag.TypeLP}},
	}}

	last, err := f.runner.Load(StartDiagram(d), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, last.Label.ID)

	first, err := f.runner.Load(StartDiagram(d), Options{}.Set("IRS", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Label.ID)

	assert.Nil(t, f.runner.Config().Solution, "receiver keeps its configuration")
}

func TestLoad_SolutionFileSelectsIRS(t *testing.T) {
	f := newFixture(t, "", Config{})
	writeSolutions(t, f.dir, "s.ab", 1, 2, 3)

	sol, err := f.runner.Load(StartName("ab"), Options{}.Set("IRS", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, sol.Label.ID)

	_, err = f.runner.Load(StartName("ab"), Options{}.Set("IRS", 9))
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, RoleSolution, cerr.Role)
}
