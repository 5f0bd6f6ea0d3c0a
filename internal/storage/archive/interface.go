// Package archive persists analysis reports to a local directory or an
// S3-compatible bucket.
package archive

import "context"

// Storage is a flat key/value blob store addressed by slash-separated paths.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path. Missing paths return core.ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

var (
	_ Storage = (*LocalFS)(nil)
	_ Storage = (*S3Storage)(nil)
)
