// Package blobstore keeps uploaded photos in an opaque object store.
// References returned by Put are the object keys.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Store writes and removes opaque objects.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, ref string) error
}

// NewKey returns a unique key such as "photos/2024/01/<uuid>.png".
func NewKey(prefix string, t time.Time, ext string) string {
	return fmt.Sprintf("%s/%04d/%02d/%s%s", prefix, t.Year(), int(t.Month()), uuid.New(), ext)
}
