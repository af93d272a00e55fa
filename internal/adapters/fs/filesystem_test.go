package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/forge/internal/adapters/fs"
	"go.trai.ch/forge/internal/core/domain"
)

func TestGetFileInfo(t *testing.T) {
	dir := t.TempDir()
	filesystem := fs.New()

	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	info := filesystem.GetFileInfo(path)
	assert.Equal(t, domain.FileKindFile, info.Kind)
	assert.Equal(t, uint64(7), info.Size)
	assert.NotZero(t, info.Inode)
	assert.NotZero(t, info.ModTimeSec)

	dirInfo := filesystem.GetFileInfo(dir)
	assert.True(t, dirInfo.IsDirectory())

	missing := filesystem.GetFileInfo(filepath.Join(dir, "absent"))
	assert.True(t, missing.IsMissing())
	assert.Equal(t, domain.FileInfo{}, missing)
}

func TestGetFileInfoChangesOnModification(t *testing.T) {
	dir := t.TempDir()
	filesystem := fs.New()

	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	before := filesystem.GetFileInfo(path)

	require.NoError(t, os.WriteFile(path, []byte("longer contents"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	after := filesystem.GetFileInfo(path)
	assert.False(t, before.Equal(after))
}

func TestGetFileContents(t *testing.T) {
	dir := t.TempDir()
	filesystem := fs.New()

	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	data, err := filesystem.GetFileContents(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = filesystem.GetFileContents(filepath.Join(dir, "absent"))
	assert.Error(t, err)
}

func TestCreateDirectories(t *testing.T) {
	dir := t.TempDir()
	filesystem := fs.New()

	nested := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, filesystem.CreateDirectories(nested))

	info := filesystem.GetFileInfo(nested)
	assert.True(t, info.IsDirectory())

	// Idempotent.
	require.NoError(t, filesystem.CreateDirectories(nested))

	// A file in the way is an error.
	blocked := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocked, nil, 0o644))
	assert.Error(t, filesystem.CreateDirectories(filepath.Join(blocked, "sub")))
}
