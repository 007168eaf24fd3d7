package buildpipe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchPathsReportsChanges(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		batches [][]string
	)
	done := make(chan error, 1)
	go func() {
		done <- watchPaths(ctx, []string{dir}, 50*time.Millisecond, func(changed []string) {
			mu.Lock()
			batches = append(batches, changed)
			mu.Unlock()
		})
	}()

	// Give the watcher a moment to set up before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	first := batches[0]
	mu.Unlock()
	require.NotEmpty(t, first)
	assert.Contains(t, first[0], "index.html")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchPathsDebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		batches [][]string
	)
	go func() {
		_ = watchPaths(ctx, []string{dir}, 200*time.Millisecond, func(changed []string) {
			mu.Lock()
			batches = append(batches, changed)
			mu.Unlock()
		})
	}()

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte{byte(i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 3*time.Second, 20*time.Millisecond)

	// The burst collapses into a single batch carrying every event.
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, batches, 1)
	assert.GreaterOrEqual(t, len(batches[0]), 1)
}

func TestWatchPathsFailsOnMissingRoot(t *testing.T) {
	// A missing root directory is skipped rather than fatal: the walk
	// reports nothing to watch and the watcher idles until cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := watchPaths(ctx, []string{filepath.Join(t.TempDir(), "missing")}, 0, func([]string) {})
	assert.True(t, errors.Is(err, context.Canceled) || err == nil)
}
