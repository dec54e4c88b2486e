package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	UseLogger(zap.New(core))
	t.Cleanup(Reset)
	return logs
}

func TestGet_NoopBeforeInitialize(t *testing.T) {
	Reset()
	for _, cat := range Categories {
		assert.False(t, IsCategoryEnabled(cat))
		// must not panic
		Get(cat).Info("ignored %d", 1)
	}
}

func TestAllCategoriesLog(t *testing.T) {
	logs := observe(t)

	for _, cat := range Categories {
		require.True(t, IsCategoryEnabled(cat), "category %s", cat)
		Get(cat).Info("info for %s", cat)
	}
	Run("convenience run")
	TactileDebug("convenience tactile")

	assert.Equal(t, len(Categories)+2, logs.Len())
	for _, cat := range Categories {
		assert.Equal(t, 1, logs.FilterLoggerName(string(cat)).FilterMessage("info for "+string(cat)).Len())
	}
	assert.Equal(t, 2, logs.FilterLoggerName(string(CategoryRun)).Len())
}

func TestInitialize_FileAndCategoryFilter(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "logs", "autoctl.log")

	err := Initialize(Config{
		Level:      "debug",
		Format:     "json",
		File:       path,
		Categories: map[string]bool{"store": false},
	})
	require.NoError(t, err)

	assert.False(t, IsCategoryEnabled(CategoryStore))
	assert.True(t, IsCategoryEnabled(CategoryRun))

	Get(CategoryRun).Info("dispatching %s", "ab")
	Get(CategoryStore).Info("hidden store line")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dispatching ab")
	assert.Contains(t, string(data), `"logger":"run"`)
	assert.NotContains(t, string(data), "hidden store line")
}

func TestInitialize_BadLevel(t *testing.T) {
	t.Cleanup(Reset)
	assert.Error(t, Initialize(Config{Level: "loud"}))
}

func TestAudit(t *testing.T) {
	logs := observe(t)

	AuditWithRun("run-1").SolverExec("./ab.exe", 2, 150*time.Millisecond, errors.New("exit status 2"))
	Audit().FileOp(AuditFileCommit, "b.ab", 1024, nil)

	entries := logs.FilterLoggerName(string(CategoryAudit)).AllUntimed()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "solver_error", first["event"])
	assert.Equal(t, "run-1", first["run"])
	assert.Equal(t, false, first["success"])
	assert.Equal(t, "exit status 2", first["error"])

	second := entries[1].ContextMap()
	assert.Equal(t, "b.ab", second["target"])
	assert.Equal(t, true, second["success"])
}

func TestTimer(t *testing.T) {
	logs := observe(t)

	timer := StartTimer(CategoryArtifact, "commit")
	elapsed := timer.Stop()
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))

	StartTimer(CategoryTactile, "solve").StopWithThreshold(-1)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.DebugLevel).Len())
}
