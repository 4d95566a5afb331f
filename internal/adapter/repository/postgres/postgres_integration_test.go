//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/snaplink/internal/entity"
	"github.com/vadimbarashkov/snaplink/migrations"
	"github.com/vadimbarashkov/snaplink/pkg/postgres"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupPostgres(t testing.TB) string {
	t.Helper()

	ctx := context.Background()

	pgCont, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("snaplink"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := pgCont.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := postgres.RunMigrations(dsn, postgres.WithSourceFS(migrations.FS)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return dsn
}

func TestURLRepository_Integration(t *testing.T) {
	dsn := setupPostgres(t)
	ctx := context.Background()

	db, err := postgres.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	repo := NewURLRepository(db, "")

	urls, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, urls)

	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	want := []entity.URL{{
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(30 * time.Minute),
		Clicks:      []entity.Click{},
	}}

	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want[0].Clicks = append(want[0].Clicks, entity.Click{
		Timestamp: createdAt.Add(time.Minute),
		Source:    entity.SourceDirect,
		Geo:       entity.GeoUnknown,
	})
	require.NoError(t, repo.Save(ctx, want))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
