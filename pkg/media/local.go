package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore persists images on disk under a base directory. Used in
// development and tests where no Cloudinary credentials exist.
type LocalStore struct {
	baseDir string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore ensures the base directory exists and returns a handle.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Upload writes the image under folder with a generated name.
func (s *LocalStore) Upload(_ context.Context, r io.Reader, folder string) (Asset, error) {
	rel := filepath.Join(folder, uuid.NewString())
	full := filepath.Join(s.baseDir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Asset{}, fmt.Errorf("prepare media directory: %w", err)
	}

	file, err := os.Create(full)
	if err != nil {
		return Asset{}, fmt.Errorf("create media file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, r); err != nil {
		return Asset{}, fmt.Errorf("write media file: %w", err)
	}

	return Asset{URL: "/media/" + filepath.ToSlash(rel), PublicID: rel}, nil
}

// Delete removes a stored image if present.
func (s *LocalStore) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	full := filepath.Join(s.baseDir, publicID)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}
