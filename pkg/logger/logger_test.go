package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("bogus")
	require.Error(t, err)
}

func TestRingBufferKeepsLastEntries(t *testing.T) {
	l, err := New(LevelInfo, nil)
	require.NoError(t, err)

	for i := 0; i < ringBufferCapacity+10; i++ {
		l.Info("tick")
	}

	entries := l.RecentEntries()
	require.Len(t, entries, ringBufferCapacity)
}

func TestRotatingFileRotatesAtMaxBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.log")

	rf, err := NewRotatingFile(path, 16, 2)
	require.NoError(t, err)
	defer rf.Close()

	for i := 0; i < 10; i++ {
		_, err := rf.Write([]byte("0123456789\n"))
		require.NoError(t, err)
	}

	require.FileExists(t, path)
	require.FileExists(t, path+".1")
}

func TestComponentTaggingSurfacesInRingBuffer(t *testing.T) {
	l, err := New(LevelInfo, nil)
	require.NoError(t, err)

	scoped := l.With("async")
	scoped.Info("worker started")

	entries := l.RecentEntries()
	require.NotEmpty(t, entries)
	require.Equal(t, "async", entries[len(entries)-1].Component)
}
