package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidConfig = errors.New("invalid storage config")
	ErrUploadFailed  = errors.New("upload failed")
	ErrAccessDenied  = errors.New("storage access denied")
	ErrInvalidKey    = errors.New("invalid object key")
)

// Store persists an object under key and returns its public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}
