package fsops

import (
	"io"
	"os"
)

// Filesystem abstracts the single-node primitives the traversal engine and
// the bulk operations are built on. Every method touches exactly one node.
// Enables mocking in tests to prove dry-run never deletes and to inject
// per-node failures.
type Filesystem interface {
	// Lstat returns metadata for one path without following symlinks.
	Lstat(path string) (os.FileInfo, error)

	// ReadDir returns the names of the direct entries of a directory,
	// in the order the underlying filesystem reports them.
	ReadDir(path string) ([]string, error)

	// Mkdir creates a single directory level. Fails if the parent is missing.
	Mkdir(path string, mode os.FileMode) error

	// RemoveDir removes an empty directory.
	RemoveDir(path string) error

	// RemoveFile removes a single non-directory node.
	RemoveFile(path string) error

	// OpenRead opens a readable byte stream on an existing file.
	OpenRead(path string) (io.ReadCloser, error)

	// OpenWrite opens a writable byte stream, creating or truncating the file.
	OpenWrite(path string, mode os.FileMode) (io.WriteCloser, error)
}
