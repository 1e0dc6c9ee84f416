package configwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("a=1"), 0o644))

	w, err := New(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a=2"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.Changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a debounced Changed signal")
	}

	select {
	case <-w.Changed:
		t.Fatal("expected only one Changed signal for the burst")
	case <-time.After(debounceWindow + 100*time.Millisecond):
	}
}

func TestWatcherIgnoresOtherFilesInDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("a=1"), 0o644))

	w, err := New(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))

	select {
	case <-w.Changed:
		t.Fatal("unrelated file write should not trigger a reload")
	case <-time.After(debounceWindow + 200*time.Millisecond):
	}
}
