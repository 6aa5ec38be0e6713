package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/samirrijal/fadepin/internal/adapters/backend"
	"github.com/samirrijal/fadepin/internal/adapters/http"
	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/usecases"
	"github.com/samirrijal/fadepin/internal/pkg/config"
	"github.com/samirrijal/fadepin/internal/pkg/logging"
	"github.com/samirrijal/fadepin/internal/pkg/telemetry"
	"github.com/samirrijal/fadepin/internal/workflows"
)

func main() {
	cfg, err := config.Load("fadepin-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			logger.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Slot storage and change notifications
	be, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer be.Close()

	storeOpts := []usecases.StoreOption{usecases.WithLogger(logger)}

	// Out-of-process expiry
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    temporallog.NewStructuredLogger(logger),
		})
		if err != nil {
			logger.Warn("temporal unavailable, expiry relies on the local scheduler", "error", err)
		} else {
			defer tc.Close()
			storeOpts = append(storeOpts, usecases.WithExpiryScheduler(
				workflows.NewExpiryStarter(tc, cfg.Temporal.TaskQueue, cfg.Lifecycle.GracePeriod),
			))
		}
	}

	store := usecases.NewMarkerStore(
		usecases.StoreConfig{SlotKey: cfg.Storage.SlotKey, TTL: cfg.Lifecycle.TTL},
		be.Slots, be.Notifier, be.Codec, storeOpts...,
	)
	store.Open(ctx)
	defer store.Close()

	scheduler := usecases.NewScheduler(usecases.SchedulerConfig{
		TickInterval: cfg.Lifecycle.TickInterval,
		FadeLead:     cfg.Lifecycle.FadeLead,
		FadeDuration: cfg.Lifecycle.FadeDuration,
		GracePeriod:  cfg.Lifecycle.GracePeriod,
	}, store, usecases.WithSchedulerLogger(logger))
	go scheduler.Run(ctx)

	var origin *domain.GeoPoint
	if cfg.Location.UseDefaultOrigin {
		origin = &domain.GeoPoint{Lat: cfg.Location.DefaultLat, Lng: cfg.Location.DefaultLng}
	}

	deps := &http.Dependencies{
		Views:           usecases.NewViewService(store, usecases.NewVisibilityFilter(cfg.Visibility.RadiusKm), cfg.Lifecycle.FadeLead, nil),
		Location:        usecases.NewLocationTracker(origin),
		DefaultOrigin:   origin,
		RefreshInterval: cfg.Lifecycle.TickInterval,
	}
	for _, c := range be.Checks {
		deps.Checks = append(deps.Checks, http.ReadyCheck{Name: c.Name, Check: c.Ping})
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "fadepin API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	logger.Info("server stopped")
}
