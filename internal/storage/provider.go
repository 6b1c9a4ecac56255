// Package storage gives rooted access to a directory of site documents.
package storage

import "github.com/starford/zettelmark/internal/models"

// Provider is the interface for document file operations. Paths are
// relative to the provider root.
type Provider interface {
	// List returns metadata for every file under dir with one of exts,
	// ".md" when none are given. Results are ordered by path.
	List(dir string, exts ...string) ([]models.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Abs resolves path to an absolute file system path inside the root.
	Abs(path string) (string, error)
}
