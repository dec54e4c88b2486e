// Package logging provides categorized structured logging for autoctl.
// Every category is backed by a zap SugaredLogger. Until Initialize is
// called all categories are no-ops, so packages and tests can log freely.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // CLI start-up, configuration discovery
	CategoryConfig   Category = "config"   // autoctl.yaml loading and validation
	CategoryArtifact Category = "artifact" // File naming, commits, backups
	CategoryRun      Category = "run"      // Run dispatch and option resolution
	CategoryTactile  Category = "tactile"  // Solver process execution
	CategoryCompose  Category = "compose"  // Named diagram operations
	CategoryStore    Category = "store"    // Run history ledger
	CategoryWatch    Category = "watch"    // Artifact watcher
	CategoryAudit    Category = "audit"    // Audit events
)

// Categories lists every known category.
var Categories = []Category{
	CategoryBoot, CategoryConfig, CategoryArtifact, CategoryRun, CategoryTactile,
	CategoryCompose, CategoryStore, CategoryWatch, CategoryAudit,
}

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	Level      string
	Format     string // "json" or "console"
	File       string
	Categories map[string]bool
}

// Logger is a category scoped logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    *zap.Logger
	cfg     Config
	loggers = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger. It may be called again to
// reconfigure; loggers handed out earlier keep their old sink.
func Initialize(c Config) error {
	var zc zap.Config
	if strings.EqualFold(c.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(orDefault(c.Level, "info"))
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
			return fmt.Errorf("logging: create log directory: %w", err)
		}
		zc.OutputPaths = []string{c.File}
	}

	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("logging: build logger: %w", err)
	}

	mu.Lock()
	old := base
	base = logger
	cfg = c
	loggers = make(map[Category]*Logger)
	mu.Unlock()

	if old != nil {
		_ = old.Sync()
	}
	Get(CategoryBoot).Debug("logging initialized level=%s format=%s", level, orDefault(c.Format, "json"))
	return nil
}

// UseLogger installs an existing zap logger, typically zaptest or an
// observer core in tests.
func UseLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	cfg = Config{}
	loggers = make(map[Category]*Logger)
}

// Reset drops the shared logger; every category becomes a no-op again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if base != nil {
		_ = base.Sync()
	}
	base = nil
	cfg = Config{}
	loggers = make(map[Category]*Logger)
}

// IsCategoryEnabled reports whether category produces output.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabledLocked(category)
}

func enabledLocked(category Category) bool {
	if base == nil {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	return !exists || enabled
}

// Get returns (or creates) the logger for category. A no-op logger is
// returned before Initialize and for disabled categories.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{category: category, sugar: zap.NewNop().Sugar()}
	if enabledLocked(category) {
		l.sugar = base.Named(string(category)).Sugar()
	}
	loggers[category] = l
	return l
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a logger carrying structured key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Sugar exposes the underlying zap logger.
func (l *Logger) Sugar() *zap.SugaredLogger { return l.sugar }

// Run logs to the run category
func Run(format string, args ...interface{}) { Get(CategoryRun).Info(format, args...) }

// RunDebug logs debug to the run category
func RunDebug(format string, args ...interface{}) { Get(CategoryRun).Debug(format, args...) }

// RunWarn logs warning to the run category
func RunWarn(format string, args ...interface{}) { Get(CategoryRun).Warn(format, args...) }

// Artifact logs to the artifact category
func Artifact(format string, args ...interface{}) { Get(CategoryArtifact).Info(format, args...) }

// ArtifactDebug logs debug to the artifact category
func ArtifactDebug(format string, args ...interface{}) {
	Get(CategoryArtifact).Debug(format, args...)
}

// Tactile logs to the tactile category
func Tactile(format string, args ...interface{}) { Get(CategoryTactile).Info(format, args...) }

// TactileDebug logs debug to the tactile category
func TactileDebug(format string, args ...interface{}) { Get(CategoryTactile).Debug(format, args...) }

// TactileError logs error to the tactile category
func TactileError(format string, args ...interface{}) { Get(CategoryTactile).Error(format, args...) }

// ComposeDebug logs debug to the compose category
func ComposeDebug(format string, args ...interface{}) { Get(CategoryCompose).Debug(format, args...) }

// Store logs to the store category
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// Watch logs to the watch category
func Watch(format string, args ...interface{}) { Get(CategoryWatch).Info(format, args...) }

// WatchDebug logs debug to the watch category
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }

// Boot logs to the boot category
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// StoreWarn logs warning to the store category
func StoreWarn(format string, args ...interface{}) { Get(CategoryStore).Warn(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
