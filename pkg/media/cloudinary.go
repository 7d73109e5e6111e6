package media

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/clab/student-portal-api/pkg/config"
)

// CloudinaryStore stores images on Cloudinary.
type CloudinaryStore struct {
	client     *cloudinary.Cloudinary
	baseFolder string
}

var _ Store = (*CloudinaryStore)(nil)

// NewCloudinaryStore builds a store from config.
func NewCloudinaryStore(cfg config.MediaConfig) (*CloudinaryStore, error) {
	client, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{client: client, baseFolder: cfg.BaseFolder}, nil
}

// Upload pushes the image into the given folder under the base folder.
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, folder string) (Asset, error) {
	res, err := s.client.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder: path.Join(s.baseFolder, folder),
	})
	if err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	return Asset{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Delete removes an uploaded image by its stored public id.
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if _, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	return nil
}
