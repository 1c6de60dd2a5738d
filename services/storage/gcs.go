package storagesvc

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"

	"github.com/trezcool/tamasha/core"
)

// gcsService stores uploads in a Google Cloud Storage bucket; the reference
// is the object name.
type gcsService struct {
	bucket *storage.BucketHandle
}

var _ core.FileStorage = (*gcsService)(nil)

func NewGCSService(ctx context.Context) (*gcsService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "creating GCS client")
	}
	return &gcsService{bucket: client.Bucket(core.Conf.Storage.Bucket)}, nil
}

func (svc *gcsService) Save(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	ref := newObjectName(filename, contentType)

	w := svc.bucket.Object(ref).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "closing object writer")
	}
	return ref, nil
}

func (svc *gcsService) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	r, err := svc.bucket.Object(ref).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return nil, core.ErrFileNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "opening object")
	}
	return r, nil
}
