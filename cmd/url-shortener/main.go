package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/vadimbarashkov/snaplink/internal/app"
	"github.com/vadimbarashkov/snaplink/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg.Env, os.Stdout)

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped", slog.Any("err", err))
		os.Exit(1)
	}
}
