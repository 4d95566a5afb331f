package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/snaplink/internal/adapter/repository/jsonstore"
	"github.com/vadimbarashkov/snaplink/internal/entity"
)

// URLRepository keeps the URL collection as one jsonb document in the kv_store table.
type URLRepository struct {
	db  *sqlx.DB
	key string
}

func NewURLRepository(db *sqlx.DB, key string) *URLRepository {
	if key == "" {
		key = jsonstore.DefaultKey
	}

	return &URLRepository{db: db, key: key}
}

func (r *URLRepository) Load(ctx context.Context) ([]entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Load"
	const query = `SELECT value FROM kv_store WHERE key = $1`

	var value []byte

	if err := r.db.GetContext(ctx, &value, query, r.key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []entity.URL{}, nil
		}

		return nil, fmt.Errorf("%s: failed to get row from kv_store table: %w", op, err)
	}

	return jsonstore.Decode(value), nil
}

func (r *URLRepository) Save(ctx context.Context, urls []entity.URL) error {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO kv_store(key, value) VALUES ($1, $2::jsonb)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	data, err := jsonstore.Encode(urls)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, query, r.key, string(data)); err != nil {
		return fmt.Errorf("%s: failed to upsert into kv_store table: %w", op, err)
	}

	return nil
}
