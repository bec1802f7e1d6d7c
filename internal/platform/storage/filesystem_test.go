package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *FilesystemStorage {
	t.Helper()
	s, err := NewFilesystemStorage(t.TempDir(), slog.Default())
	require.NoError(t, err)
	return s
}

func TestPutAndOverwrite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tasks/a/notes.txt", "text/plain", []byte("first draft")))

	data, err := os.ReadFile(filepath.Join(s.root, "tasks", "a", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first draft"), data)

	// An edit is a put under the same key.
	require.NoError(t, s.Put(ctx, "tasks/a/notes.txt", "text/plain", []byte("revised")))
	data, err = os.ReadFile(filepath.Join(s.root, "tasks", "a", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("revised"), data)
}

func TestRemove(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tasks/a/notes.txt", "text/plain", []byte("notes")))
	require.NoError(t, s.Remove(ctx, "tasks/a/notes.txt"))

	_, err := os.Stat(filepath.Join(s.root, "tasks", "a", "notes.txt"))
	assert.True(t, os.IsNotExist(err))

	// Removing a missing object is not an error.
	require.NoError(t, s.Remove(ctx, "tasks/a/notes.txt"))
}

func TestRejectsEscapingKeys(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.Error(t, s.Put(ctx, "../outside.txt", "text/plain", []byte("x")))
	require.Error(t, s.Remove(ctx, "../../etc/passwd"))
	require.Error(t, s.Put(ctx, "", "text/plain", []byte("x")))
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := NewFilesystemStorage("", slog.Default())
	require.Error(t, err)
}
