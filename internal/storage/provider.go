// Package storage defines the site file-system abstraction. Every path is
// relative to the site root.
package storage

// Provider is the interface for site file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Checksum returns the SHA-256 of the file at path.
	Checksum(path string) (string, error)
	// Exists reports whether path names an existing file or directory.
	Exists(path string) bool
	// RemoveAll removes path and everything below it.
	RemoveAll(path string) error
	// CopyFrom copies a file from anywhere on disk to dst under the root.
	CopyFrom(src, dst string) error
}
