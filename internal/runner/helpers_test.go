package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"autoctl/internal/artifact"
)

// abSolver is a stand-in for a compiled equation: it keeps copies of its
// inputs and writes a one-branch diagram with two labels.
const abSolver = `#!/bin/sh
cp fort.2 seen.2
[ -f fort.3 ] && cp fort.3 seen.3
cat > fort.7 <<'END'
   0    PT  TY  LAB    PAR(1)    L2-NORM
   1     1   9    1  0.0E+00  0.0E+00
   1     2   0    0  5.0E-02  1.0E-01
   1     3   2    2  1.0E-01  2.0E-01
END
cat > fort.8 <<'END'
1 1 9 1 1 1 1 2 2 0 0 1
0.0 0.0
1
0.0
1 3 2 2 1 1 1 2 2 0 0 1
0.0 0.2
1
0.1
END
printf '   1    2  Eigenvalue 1: -1\n' > fort.9
echo "BR    PT  TY  LAB"
echo "solver warning" >&2
`

type fixture struct {
	dir    string
	runner *Runner
	info   *strings.Builder
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func writeFile(t *testing.T, dir, name, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), mode))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func newFixture(t *testing.T, solver string, cfg Config) *fixture {
	t.Helper()
	dir := t.TempDir()
	if solver != "" {
		writeFile(t, dir, "ab.exe", solver, 0755)
	}
	n, err := artifact.NewNamer(dir, nil)
	require.NoError(t, err)
	if cfg.Solver == "" {
		cfg.Solver = "./%s.exe"
	}
	if cfg.Equation == "" {
		cfg.Equation = "ab"
	}
	f := &fixture{
		dir:    dir,
		runner: New(n, cfg),
		info:   &strings.Builder{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	f.runner.SetInfo(func(s string) { f.info.WriteString(s) })
	f.runner.SetOutput(f.stdout, f.stderr)
	return f
}

type memRecorder struct {
	records []RunRecord
}

func (m *memRecorder) Record(_ context.Context, rec RunRecord) error {
	m.records = append(m.records, rec)
	return nil
}
