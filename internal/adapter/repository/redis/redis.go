// Package redis keeps the URL collection as a JSON string under one Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/snaplink/internal/adapter/repository/jsonstore"
	"github.com/vadimbarashkov/snaplink/internal/entity"
)

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type URLRepository struct {
	client client
	key    string
}

func NewURLRepository(client client, key string) *URLRepository {
	if key == "" {
		key = jsonstore.DefaultKey
	}

	return &URLRepository{client: client, key: key}
}

func (r *URLRepository) Load(ctx context.Context) ([]entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.Load"

	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []entity.URL{}, nil
		}

		return nil, fmt.Errorf("%s: failed to get key %q: %w", op, r.key, err)
	}

	return jsonstore.Decode(data), nil
}

func (r *URLRepository) Save(ctx context.Context, urls []entity.URL) error {
	const op = "adapter.repository.redis.URLRepository.Save"

	data, err := jsonstore.Encode(urls)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%s: failed to set key %q: %w", op, r.key, err)
	}

	return nil
}
