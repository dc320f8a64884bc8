// Package uploads drains a form session's staged images into the remote
// object store. A batch is sequential and all-or-nothing from the store's
// point of view: on the first failed transfer every object uploaded earlier
// in the batch is deleted again before the error is returned.
package uploads

import (
	"context"

	"recipebox/internal/common"
	"recipebox/internal/form"
)

// Executor transfers a single staged image and returns the public URL of
// the stored object plus its generated object path. Errors wrap
// common.ErrUpload.
type Executor interface {
	Upload(ctx context.Context, img form.StagedImage) (remoteURL, objectPath string, err error)
}

// ObjectDeleter removes a stored object. Used only for batch compensation.
type ObjectDeleter interface {
	Delete(ctx context.Context, bucket common.Bucket, path string) error
}

// ProgressFunc receives completed/total after each finished transfer.
// Batches are sequential, so completed is monotonic within one call.
type ProgressFunc func(completed, total int)
