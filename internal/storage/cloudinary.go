// Package storage stages uploaded images in Cloudinary for the duration of a
// generation request.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Asset describes an image staged in the object store. The public ID is the handle
// used to delete the image once the request that staged it completes.
type Asset struct {
	URL      string
	PublicID string
}

// Store is a Cloudinary-backed ephemeral asset store.
type Store struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewStore creates a new asset store.
func NewStore(cloudName, apiKey, apiSecret, folder string) (*Store, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize the Cloudinary client")
	}
	return &Store{cld: cld, folder: folder}, nil
}

// Upload stages an image in the object store and returns its URL and deletion
// handle. A random suffix keeps concurrent uploads of identically named files from
// colliding.
func (s *Store) Upload(ctx context.Context, file io.Reader, filename string) (*Asset, error) {
	wrapMsg := "unable to upload the image"

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	publicID := fmt.Sprintf("%s-%s", base, uuid.NewString())

	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	if result.Error.Message != "" {
		return nil, errors.Wrap(errors.New(result.Error.Message), wrapMsg)
	}

	return &Asset{URL: result.SecureURL, PublicID: result.PublicID}, nil
}

// Delete removes a staged image from the object store.
func (s *Store) Delete(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return errors.Wrap(err, "unable to delete the staged image")
	}
	return nil
}
