package storage

import (
	"context"
	"fmt"
	"io"

	"recipebox/internal/common"
	"recipebox/internal/form"
)

// ObjectStore is the slice of the store the executor needs.
type ObjectStore interface {
	Store(ctx context.Context, bucket common.Bucket, key string, body io.Reader, contentType string) (string, error)
}

// ImageUploader implements uploads.Executor: it opens the staged image's
// bytes, generates a fresh object key and stores the object. All failures
// wrap common.ErrUpload.
type ImageUploader struct {
	store ObjectStore
	open  SourceOpener
}

func NewImageUploader(store ObjectStore) *ImageUploader {
	return &ImageUploader{store: store, open: OpenLocalURI}
}

func (u *ImageUploader) Upload(ctx context.Context, img form.StagedImage) (string, string, error) {
	body, err := u.open(ctx, img.LocalURI)
	if err != nil {
		return "", "", fmt.Errorf("%w: reading %s: %v", common.ErrUpload, img.LocalURI, err)
	}
	defer body.Close()

	key := GenerateObjectKey(img.FileName)

	url, err := u.store.Store(ctx, img.Bucket, key, body, img.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", common.ErrUpload, err)
	}

	return url, key, nil
}
