// Package filesystem provides the operating-system backed file access used while bootstrapping working trees.
package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OSFileSystem implements file access using operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// RemoveAll deletes a path and any children it contains.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Remove deletes a single file or empty directory.
func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}
