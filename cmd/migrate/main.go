package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	"github.com/geocoder89/taskhub/internal/observability"
)

// migrate applies the embedded schema to DATABASE_URL and exits. The API does the
// same on startup when DB_AUTO_MIGRATE is set.
func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if cfg.DBURL == "" {
		log.Error("DATABASE_URL is empty")
		os.Exit(1)
	}

	if err := db.Migrate(ctx, cfg.DBURL); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	log.Info("migrations applied")
}
