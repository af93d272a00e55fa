// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/forge/internal/core/domain"

// FileSystem defines the filesystem operations the build system needs.
//
//go:generate go run go.uber.org/mock/mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// GetFileContents reads the entire contents of the file at path.
	GetFileContents(path string) ([]byte, error)

	// GetFileInfo stats path and returns its observable identity. A
	// missing path yields a FileInfo with FileKindMissing, not an error.
	GetFileInfo(path string) domain.FileInfo

	// CreateDirectories creates the directory at path, including any
	// missing parents.
	CreateDirectories(path string) error
}
