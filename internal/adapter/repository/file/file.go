// Package file keeps the URL collection in a JSON file on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vadimbarashkov/snaplink/internal/adapter/repository/jsonstore"
	"github.com/vadimbarashkov/snaplink/internal/entity"
)

type URLRepository struct {
	path string
}

func NewURLRepository(path string) *URLRepository {
	return &URLRepository{path: path}
}

// Load reads the collection. A missing file is an empty collection.
func (r *URLRepository) Load(_ context.Context) ([]entity.URL, error) {
	const op = "adapter.repository.file.URLRepository.Load"

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []entity.URL{}, nil
		}

		return nil, fmt.Errorf("%s: failed to read store file: %w", op, err)
	}

	return jsonstore.Decode(data), nil
}

// Save replaces the file contents. The new document is written to a
// temporary file in the same directory and renamed over the old one.
func (r *URLRepository) Save(_ context.Context, urls []entity.URL) error {
	const op = "adapter.repository.file.URLRepository.Save"

	data, err := jsonstore.Encode(urls)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%s: failed to create store directory: %w", op, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: failed to create temp file: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: failed to write temp file: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: failed to close temp file: %w", op, err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("%s: failed to replace store file: %w", op, err)
	}

	return nil
}
