package storagesvc

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tamasha/core"
)

// localService stores uploads on the local filesystem; the reference is the
// generated file name inside the configured directory.
type localService struct {
	dir string
}

var _ core.FileStorage = (*localService)(nil)

func NewLocalService() (*localService, error) {
	dir := core.Conf.Storage.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(core.Conf.WorkDir, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage dir")
	}
	return &localService{dir: dir}, nil
}

func (svc *localService) Save(_ context.Context, filename, contentType string, content io.Reader) (string, error) {
	ref := newObjectName(filename, contentType)
	f, err := os.Create(filepath.Join(svc.dir, ref))
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, content); err != nil {
		return "", errors.Wrap(err, "writing file")
	}
	return ref, nil
}

func (svc *localService) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(svc.dir, filepath.Base(ref)))
	if os.IsNotExist(err) {
		return nil, core.ErrFileNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

// newObjectName builds a collision-free object name, keeping the original
// extension (falling back to the content type's) for easier eyeballing.
func newObjectName(filename, contentType string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return uuid.New().String() + ext
}
