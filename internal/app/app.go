package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/snaplink/internal/adapter/repository/file"
	"github.com/vadimbarashkov/snaplink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/snaplink/internal/adapter/scheduler"
	"github.com/vadimbarashkov/snaplink/internal/adapter/telemetry"
	"github.com/vadimbarashkov/snaplink/internal/config"
	"github.com/vadimbarashkov/snaplink/internal/entity"
	"github.com/vadimbarashkov/snaplink/internal/usecase"
	"github.com/vadimbarashkov/snaplink/migrations"
	"github.com/vadimbarashkov/snaplink/pkg/postgres"
	"golang.org/x/sync/errgroup"

	httpdelivery "github.com/vadimbarashkov/snaplink/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/snaplink/internal/adapter/repository/postgres"
	redisrepo "github.com/vadimbarashkov/snaplink/internal/adapter/repository/redis"
)

const serviceName = "url-shortener"

type urlRepository interface {
	Load(ctx context.Context) ([]entity.URL, error)
	Save(ctx context.Context, urls []entity.URL) error
}

// NewLogger builds the service logger for the environment.
// Production logs are JSON, other environments are human readable.
func NewLogger(env string, w io.Writer) *httplog.Logger {
	if w == nil {
		w = os.Stdout
	}

	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
		Writer:   w,
	}

	if env == config.EnvProd {
		opts.LogLevel = slog.LevelInfo
		opts.JSON = true
		opts.Concise = false
	}

	return httplog.NewLogger(serviceName, opts)
}

// newURLRepository opens the storage backend selected by the config.
// The returned func releases it.
func newURLRepository(ctx context.Context, cfg *config.Config) (urlRepository, func() error, error) {
	const op = "app.newURLRepository"

	noop := func() error { return nil }

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewURLRepository(), noop, nil

	case config.DriverFile:
		return file.NewURLRepository(cfg.Storage.File.Path), noop, nil

	case config.DriverPostgres:
		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		migrateOpts := []postgres.MigrateOption{postgres.WithSourceFS(migrations.FS)}
		if cfg.Postgres.MigrationsPath != "" {
			migrateOpts = append(migrateOpts, postgres.WithSourceURL(cfg.Postgres.MigrationsPath))
		}

		if err := postgres.RunMigrations(cfg.Postgres.DSN(), migrateOpts...); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		return pgrepo.NewURLRepository(db, cfg.Storage.Key), db.Close, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		return redisrepo.NewURLRepository(client, cfg.Storage.Key), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Storage.Driver)
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Run starts the service and blocks until ctx is done or a component fails.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	urlRepo, closeRepo, err := newURLRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeRepo()

	g, ctx := errgroup.WithContext(ctx)

	recorders := telemetry.Multi{telemetry.NewLogger(logger.Logger)}
	if cfg.Telemetry.Endpoint != "" {
		emitter := telemetry.NewEmitter(
			cfg.Telemetry.Endpoint,
			telemetry.WithTimeout(cfg.Telemetry.Timeout),
			telemetry.WithQueueSize(cfg.Telemetry.QueueSize),
		)
		recorders = append(recorders, emitter)

		g.Go(func() error {
			return emitter.Run(ctx)
		})
	}

	urlUseCase := usecase.NewURLUseCase(
		urlRepo,
		recorders,
		usecase.WithMaxURLs(cfg.Shortener.MaxURLs),
		usecase.WithDefaultValidity(cfg.Shortener.DefaultValidity),
		usecase.WithShortCodeLength(cfg.Shortener.ShortCodeLength),
		usecase.WithReservedCodes(httpdelivery.ReservedPaths...),
	)

	router := httpdelivery.NewRouter(
		logger,
		urlUseCase,
		httpdelivery.WithBaseURL(cfg.HTTPServer.BaseURL),
		httpdelivery.WithRegistry(newRegistry()),
	)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	if cfg.Reporter.Enabled {
		reporter := scheduler.NewReporter(cfg.Reporter.Schedule, urlUseCase, recorders)

		g.Go(func() error {
			return reporter.Run(ctx)
		})
	}

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("storage", cfg.Storage.Driver))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
