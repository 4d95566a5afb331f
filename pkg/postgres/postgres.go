// Package postgres opens pooled sqlx connections over the pgx driver and
// applies schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const driverName = "pgx"

type poolSettings struct {
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
	pingTimeout     time.Duration
}

var defaultPoolSettings = poolSettings{
	connMaxIdleTime: 5 * time.Minute,
	connMaxLifetime: 30 * time.Minute,
	maxIdleConns:    5,
	maxOpenConns:    25,
	pingTimeout:     5 * time.Second,
}

type Option func(*poolSettings)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(s *poolSettings) {
		if d > 0 {
			s.connMaxIdleTime = d
		}
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(s *poolSettings) {
		if d > 0 {
			s.connMaxLifetime = d
		}
	}
}

func WithMaxIdleConns(n int) Option {
	return func(s *poolSettings) {
		if n > 0 {
			s.maxIdleConns = n
		}
	}
}

func WithMaxOpenConns(n int) Option {
	return func(s *poolSettings) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithPingTimeout bounds the connectivity check done by New.
func WithPingTimeout(d time.Duration) Option {
	return func(s *poolSettings) {
		if d > 0 {
			s.pingTimeout = d
		}
	}
}

// New opens a connection pool and verifies the database is reachable.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	s := defaultPoolSettings
	for _, opt := range opts {
		opt(&s)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	db.SetConnMaxIdleTime(s.connMaxIdleTime)
	db.SetConnMaxLifetime(s.connMaxLifetime)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetMaxOpenConns(s.maxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return db, nil
}
