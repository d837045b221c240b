package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "aiw.xml")
	require.NoError(t, os.WriteFile(target, []byte("<a/>"), 0o644))

	calls := make(chan string, 16)
	w, err := New(target, func(path string) { calls <- path }, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.xml"), []byte("<b/>"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("<a/>"), 0o644))
	}

	select {
	case got := <-calls:
		want, err := filepath.Abs(target)
		require.NoError(t, err)
		require.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "aiw.xml"), func(string) {}, Options{})
	require.Error(t, err)
}
