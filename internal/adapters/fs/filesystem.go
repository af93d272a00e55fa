// Package fs provides the local filesystem adapter.
package fs

import (
	"os"
	"syscall"

	"go.trai.ch/zerr"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

var _ ports.FileSystem = (*FileSystem)(nil)

// FileSystem implements ports.FileSystem on the local filesystem.
type FileSystem struct{}

// New creates a local filesystem adapter.
func New() *FileSystem {
	return &FileSystem{}
}

// GetFileContents reads the entire file at path.
func (f *FileSystem) GetFileContents(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the build description
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "unable to read file"), "path", path)
	}
	return data, nil
}

// GetFileInfo stats path into the observable identity the build system
// compares. A missing path yields the missing FileInfo.
func (f *FileSystem) GetFileInfo(path string) domain.FileInfo {
	info, err := os.Stat(path)
	if err != nil {
		return domain.FileInfo{Kind: domain.FileKindMissing}
	}

	kind := domain.FileKindFile
	if info.IsDir() {
		kind = domain.FileKindDirectory
	}

	result := domain.FileInfo{
		Kind:        kind,
		Size:        uint64(info.Size()),
		ModTimeSec:  info.ModTime().Unix(),
		ModTimeNsec: uint64(info.ModTime().Nanosecond()),
	}

	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		result.Device = uint64(stat.Dev)
		result.Inode = stat.Ino
	}

	return result
}

// CreateDirectories creates path including missing parents.
func (f *FileSystem) CreateDirectories(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "unable to create directories"), "path", path)
	}
	return nil
}
