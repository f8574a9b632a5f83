package exports

import (
	"context"
	"io"
	"time"
)

// StorageDriver defines how rendered export files are stored and retrieved.
type StorageDriver interface {
	// Save writes the rendered export under the given key
	Save(ctx context.Context, key string, body io.Reader, contentType string) error

	// Get returns a ReadCloser to stream the export back and its content type
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Delete removes the export
	Delete(ctx context.Context, key string) error

	// GenerateURL returns a public-facing URL
	GenerateURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
