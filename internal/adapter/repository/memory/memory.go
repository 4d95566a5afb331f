// Package memory keeps the URL collection in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/vadimbarashkov/snaplink/internal/entity"
)

type URLRepository struct {
	mu   sync.RWMutex
	urls []entity.URL
}

func NewURLRepository(urls ...entity.URL) *URLRepository {
	return &URLRepository{urls: entity.CloneURLs(urls)}
}

// Load returns a copy of the stored collection.
func (r *URLRepository) Load(_ context.Context) ([]entity.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	urls := entity.CloneURLs(r.urls)
	if urls == nil {
		urls = []entity.URL{}
	}

	return urls, nil
}

// Save replaces the stored collection with a copy of urls.
func (r *URLRepository) Save(_ context.Context, urls []entity.URL) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.urls = entity.CloneURLs(urls)

	return nil
}
