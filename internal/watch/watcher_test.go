package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"autoctl/internal/artifact"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newNamer(t *testing.T) *artifact.Namer {
	t.Helper()
	n, err := artifact.NewNamer(t.TempDir(), nil)
	require.NoError(t, err)
	return n
}

func TestNew_Validation(t *testing.T) {
	n := newNamer(t)
	_, err := New(n, []string{"ab"}, 0, nil)
	assert.Error(t, err)
	_, err = New(n, nil, 0, func(context.Context, Event) {})
	assert.Error(t, err)

	w, err := New(n, []string{"ab"}, 0, func(context.Context, Event) {})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Len(t, w.targets, 3)
}

func TestRun_DeliversDebouncedEvent(t *testing.T) {
	n := newNamer(t)
	events := make(chan Event, 8)
	w, err := New(n, []string{"ab"}, 50*time.Millisecond, func(_ context.Context, ev Event) {
		events <- ev
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(n.Dir, "unrelated.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(n.Dir, "b.ab~"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(n.Dir, "b.ab"), []byte("1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(n.Dir, "s.ab"), []byte("2"), 0644))

	select {
	case ev := <-events:
		assert.Equal(t, "ab", ev.Name)
		assert.Contains(t, []string{"b.ab", "s.ab"}, filepath.Base(ev.Path))
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	require.NoError(t, <-done)

	st := w.Stats()
	assert.GreaterOrEqual(t, st.Seen, 2)
	assert.GreaterOrEqual(t, st.Delivered, 1)
}

func TestRun_MissingDirectory(t *testing.T) {
	n, err := artifact.NewNamer(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, err)
	w, err := New(n, []string{"ab"}, 0, func(context.Context, Event) {})
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}
