package core

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

var ErrFileNotFound = errors.New("file not found")

// FileStorage is any service that can store uploaded files (payment proofs)
// and hand back a stable reference. The engine only ever stores the
// reference; it never interprets the bytes.
type FileStorage interface {
	// Save stores the content and returns a stable retrievable reference.
	Save(ctx context.Context, filename, contentType string, content io.Reader) (ref string, err error)
	// Open returns the content behind a reference previously returned by Save.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
