package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("class_attendance/cse-a.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "class_attendance/cse-a.csv", rel)

	f, err := store.Open(rel)
	require.NoError(t, err)
	defer f.Close()
	raw, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(raw))

	entries, err := os.ReadDir(filepath.Dir(store.Path(rel)))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not linger")
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, rel := range []string{"../secret.csv", "a/../../b.csv", "/etc/passwd", ""} {
		_, err := store.Save(rel, []byte("x"))
		assert.ErrorIs(t, err, ErrOutsideBase, rel)
		_, err = store.Open(rel)
		assert.ErrorIs(t, err, ErrOutsideBase, rel)
		assert.Empty(t, store.Path(rel))
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("old.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("fresh.csv", []byte("fresh"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("old.csv"), past, past))

	removed, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, removed)

	_, err = os.Stat(store.Path("fresh.csv"))
	assert.NoError(t, err)
}
