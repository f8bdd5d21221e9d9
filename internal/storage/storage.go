package storage

import (
	"context"
	"io"
	"strings"
)

// ArtifactStore persists generated artifacts by file name.
type ArtifactStore interface {
	// Put writes body under name, replacing any previous object; returns the final URI.
	Put(ctx context.Context, name string, body io.Reader) (string, error)
	// List returns the names of stored artifacts carrying the given extension.
	List(ctx context.Context, ext string) ([]string, error)
}

// Open returns a DirStore for local paths and an S3Store for s3:// URIs.
func Open(ctx context.Context, uri string) (ArtifactStore, error) {
	if strings.HasPrefix(uri, "s3://") {
		return NewS3(ctx, uri)
	}
	return NewDir(strings.TrimPrefix(uri, "file://"))
}
