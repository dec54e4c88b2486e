package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	t.Run("solver executable", func(t *testing.T) {
		t.Setenv("AUTOCTL_SOLVER", "/usr/local/bin/auto-%s")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/usr/local/bin/auto-%s", cfg.Solver.Executable)
	})

	t.Run("verbose", func(t *testing.T) {
		t.Setenv("AUTOCTL_VERBOSE", "true")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.True(t, cfg.IsVerbose())
	})

	t.Run("verbose off", func(t *testing.T) {
		t.Setenv("AUTOCTL_VERBOSE", "0")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.False(t, cfg.IsVerbose())
	})

	t.Run("unparseable bool ignored", func(t *testing.T) {
		t.Setenv("AUTOCTL_REDIRECT", "maybe")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.False(t, cfg.Solver.Redirect)
	})

	t.Run("redirect", func(t *testing.T) {
		t.Setenv("AUTOCTL_REDIRECT", "1")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.True(t, cfg.Solver.Redirect)
	})

	t.Run("auto dir", func(t *testing.T) {
		t.Setenv("AUTO_DIR", "/opt/auto")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/opt/auto", cfg.Solver.AutoDir)
	})
}
