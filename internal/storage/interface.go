package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound        = errors.New("artifact not found")
	ErrInvalidKey      = errors.New("invalid artifact key")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrTooLarge        = errors.New("artifact exceeds size limit")
)

// ArtifactStore accepts uploaded proofs and photos and returns a stable URL
// that records can reference.
type ArtifactStore interface {
	// Store saves data under a fresh key inside folderHint ("payments",
	// "tickets") and returns the URL of the saved artifact.
	Store(ctx context.Context, data []byte, folderHint, contentType string) (string, error)
}

// ArtifactReader serves artifacts back to clients through the download route.
type ArtifactReader interface {
	Open(ctx context.Context, key string) (body io.ReadCloser, contentType string, err error)
}

// Backend is implemented by every concrete store.
type Backend interface {
	ArtifactStore
	ArtifactReader
}
