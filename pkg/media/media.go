package media

import (
	"context"
	"io"
)

// Asset is a stored image: the public URL served to clients and the
// provider identifier used for deletion. The identifier is persisted
// alongside the URL so removal never has to reparse a URL.
type Asset struct {
	URL      string
	PublicID string
}

// Store uploads and deletes images on a remote (or local) backend.
type Store interface {
	Upload(ctx context.Context, r io.Reader, folder string) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}
