package uploads

import (
	"context"
	"fmt"

	"recipebox/internal/common"
	"recipebox/internal/form"
	"recipebox/internal/logging"
)

// Batch implements form.Uploader over an Executor and an ObjectDeleter.
type Batch struct {
	exec     Executor
	deleter  ObjectDeleter
	log      logging.Logger
	progress ProgressFunc
}

func NewBatch(exec Executor, deleter ObjectDeleter, log logging.Logger) *Batch {
	return &Batch{exec: exec, deleter: deleter, log: log}
}

// OnProgress registers a callback for per-item progress reporting.
func (b *Batch) OnProgress(fn ProgressFunc) {
	b.progress = fn
}

type uploadedObject struct {
	bucket common.Bucket
	path   string
}

// UploadAll transfers the images in order. On the first failure it deletes
// every object stored so far in this batch (best-effort: delete failures
// are logged, never escalated, and never mask the upload error) and returns
// the upload error. Images after the failed one are not attempted; they
// remain staged in the caller's session for a retry.
func (b *Batch) UploadAll(ctx context.Context, images []form.StagedImage) ([]form.UploadResult, error) {
	if len(images) == 0 {
		return nil, nil
	}

	results := make([]form.UploadResult, 0, len(images))
	var uploaded []uploadedObject

	for i, img := range images {
		url, path, err := b.exec.Upload(ctx, img)
		if err != nil {
			b.compensate(ctx, uploaded)
			return nil, fmt.Errorf("uploading %s: %w", img.FieldPath, err)
		}

		results = append(results, form.UploadResult{
			FieldPath:  img.FieldPath,
			RemoteURL:  url,
			Bucket:     img.Bucket,
			ObjectPath: path,
		})
		uploaded = append(uploaded, uploadedObject{bucket: img.Bucket, path: path})

		if b.progress != nil {
			b.progress(i+1, len(images))
		}
	}

	return results, nil
}

func (b *Batch) compensate(ctx context.Context, uploaded []uploadedObject) {
	for _, obj := range uploaded {
		if err := b.deleter.Delete(ctx, obj.bucket, obj.path); err != nil {
			b.log.Error(ctx, "batch compensation delete failed",
				"bucket", obj.bucket, "path", obj.path, "error", err)
		}
	}
}
