// internal/blob/blob.go
package blob

import (
	"context"
	"time"
)

// Store is the object-storage boundary. Keys are namespaced by the
// configured prefixes plus owner and job/file identifiers; repeated puts
// to the same key overwrite.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
}
