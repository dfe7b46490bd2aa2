package grep

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherSearchesWrittenFiles(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{"sub/keep.txt": "not searched"})
	s := newSearcher(t, "fetch(ES_ANY)", nil)

	var (
		mu      sync.Mutex
		results []FileResult
	)
	w, err := s.NewWatcher(func(res FileResult) error {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, res)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	target := filepath.Join(dir, "sub", "api.ts")
	require.NoError(t, os.WriteFile(target, []byte("fetch('/a');\nfetch('/b');"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "notes.md"), []byte("fetch(1)"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	for _, res := range results {
		assert.Equal(t, target, res.Path)
	}
	last := results[len(results)-1]
	assert.NoError(t, last.Err)
	assert.Len(t, last.Matches, 2)
}

func TestWatcherAddMissingDir(t *testing.T) {
	t.Parallel()
	s := newSearcher(t, "x", nil)
	w, err := s.NewWatcher(func(FileResult) error { return nil })
	require.NoError(t, err)
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "missing")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
}

func TestWatcherDropsReplacedTimer(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "api.ts")
	s := newSearcher(t, "x", nil)
	w, err := s.NewWatcher(func(FileResult) error { return nil })
	require.NoError(t, err)
	defer w.watcher.Close()

	event := fsnotify.Event{Name: target, Op: fsnotify.Write}
	w.handleFileEvent(event)
	// the first timer fires and waits on the channel nobody reads yet
	time.Sleep(3 * settle)
	w.handleFileEvent(event)

	stale := <-w.changed
	assert.False(t, w.settled(stale))

	latest := <-w.changed
	assert.Greater(t, latest.gen, stale.gen)
	assert.True(t, w.settled(latest))
	assert.Empty(t, w.pending)

	w.handleFileEvent(fsnotify.Event{Name: filepath.Join(dir, "notes.md"), Op: fsnotify.Write})
	assert.Empty(t, w.pending)
}
