package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/fadepin/internal/adapters/backend"
	"github.com/samirrijal/fadepin/internal/adapters/postgres"
	"github.com/samirrijal/fadepin/internal/core/usecases"
	"github.com/samirrijal/fadepin/internal/pkg/config"
	"github.com/samirrijal/fadepin/internal/pkg/logging"
	"github.com/samirrijal/fadepin/internal/workflows"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load("fadepin-sweeper")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	be, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer be.Close()

	store := usecases.NewMarkerStore(
		usecases.StoreConfig{SlotKey: cfg.Storage.SlotKey, TTL: cfg.Lifecycle.TTL},
		be.Slots, be.Notifier, be.Codec, usecases.WithLogger(logger),
	)
	store.Open(ctx)
	defer store.Close()

	if cfg.Temporal.Enabled {
		c, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    temporallog.NewStructuredLogger(logger),
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer c.Close()

		w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
		w.RegisterWorkflow(workflows.MarkerExpiryWorkflow)
		w.RegisterActivity(&workflows.ExpiryActivities{Store: store, Logger: logger})

		if err := w.Start(); err != nil {
			log.Fatalf("worker: %v", err)
		}
		defer w.Stop()
		logger.Info("expiry worker started", "task_queue", cfg.Temporal.TaskQueue)
	}

	go sweep(ctx, store, be.Postgres, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("sweeper stopping", "signal", sig.String())
}

// sweep periodically drops expired markers from the slot, and expired slot
// rows when the slot lives in Postgres.
func sweep(ctx context.Context, store *usecases.MarkerStore, db *postgres.DB, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	var repo *postgres.SlotRepo
	if db != nil {
		repo = postgres.NewSlotRepo(db)
	}

	for {
		select {
		case <-ticker.C:
			store.Sync(ctx)
			store.RemoveExpired(ctx)

			if repo == nil {
				continue
			}
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Error("expired slot cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired slots deleted", "rows", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
