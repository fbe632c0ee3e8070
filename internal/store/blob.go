package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Blobs reads and replaces the raw bytes of a collection. Read must return an
// error matching fs.ErrNotExist when the collection has never been written,
// and Write must replace the previous content atomically.
type Blobs interface {
	Read(ctx context.Context, c Collection) ([]byte, error)
	Write(ctx context.Context, c Collection, data []byte) error
}

// FileBlobs keeps each collection in its own file on local disk.
type FileBlobs struct {
	paths map[Collection]string
}

func NewFileBlobs(cardsPath, reviewsPath string) *FileBlobs {
	return &FileBlobs{
		paths: map[Collection]string{
			CollectionCards:   cardsPath,
			CollectionReviews: reviewsPath,
		},
	}
}

func (b *FileBlobs) Path(c Collection) string {
	return b.paths[c]
}

func (b *FileBlobs) Read(_ context.Context, c Collection) ([]byte, error) {
	path, err := b.path(c)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (b *FileBlobs) Write(_ context.Context, c Collection, data []byte) error {
	path, err := b.path(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	committed = true
	return nil
}

func (b *FileBlobs) path(c Collection) (string, error) {
	path, ok := b.paths[c]
	if !ok || path == "" {
		return "", fmt.Errorf("no path configured for %s: %w", c, fs.ErrInvalid)
	}
	return path, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
