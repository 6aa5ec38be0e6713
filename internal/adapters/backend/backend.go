// Package backend opens the slot store and change notifier selected by
// configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/fadepin/internal/adapters/memory"
	natsadapter "github.com/samirrijal/fadepin/internal/adapters/nats"
	"github.com/samirrijal/fadepin/internal/adapters/postgres"
	"github.com/samirrijal/fadepin/internal/adapters/sqlite"
	"github.com/samirrijal/fadepin/internal/adapters/valkey"
	"github.com/samirrijal/fadepin/internal/core/ports"
	"github.com/samirrijal/fadepin/internal/pkg/config"
	"github.com/samirrijal/fadepin/internal/pkg/slotcodec"
)

// Check is a named readiness check for one backend.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Backend bundles everything a MarkerStore needs from the outside world.
type Backend struct {
	Slots    ports.SlotStore
	Notifier ports.ChangeNotifier
	Codec    slotcodec.Codec
	Checks   []Check

	// Postgres is set when the postgres driver is selected.
	Postgres *postgres.DB

	closers []func()
}

// Open connects to the configured storage driver and notifier. A notifier
// that cannot connect is logged and left out; the store then only sees its
// own writes.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	codec, err := slotcodec.New(cfg.Storage.Codec)
	if err != nil {
		return nil, err
	}
	b := &Backend{Codec: codec}

	switch cfg.Storage.Driver {
	case "sqlite":
		slot, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		b.Slots = slot
		b.Checks = append(b.Checks, Check{Name: "sqlite", Ping: slot.Ping})
		b.closers = append(b.closers, func() { _ = slot.Close() })
	case "valkey":
		slot, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			return nil, fmt.Errorf("valkey: %w", err)
		}
		b.Slots = slot
		b.Checks = append(b.Checks, Check{Name: "valkey", Ping: slot.Ping})
		b.closers = append(b.closers, slot.Close)
	case "postgres":
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.Postgres = db
		b.Slots = postgres.NewSlotRepo(db)
		b.Checks = append(b.Checks, Check{Name: "postgres", Ping: db.Ping})
		b.closers = append(b.closers, db.Close)
	case "memory":
		b.Slots = memory.NewSlot()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Storage.Notifier {
	case "nats":
		n, err := natsadapter.NewNotifier(cfg.NATS.URL)
		if err != nil {
			logger.Warn("nats unavailable, slot changes from other writers will be missed", "error", err)
			break
		}
		b.Notifier = n
		b.Checks = append(b.Checks, Check{Name: "nats", Ping: func(ctx context.Context) error {
			if !n.Connected() {
				return fmt.Errorf("disconnected")
			}
			return nil
		}})
		b.closers = append(b.closers, n.Close)
	case "memory":
		b.Notifier = memory.NewBus()
	}

	logger.Info("storage backend ready",
		"driver", cfg.Storage.Driver,
		"codec", codec.Name(),
		"notifier", cfg.Storage.Notifier,
	)
	return b, nil
}

// Close releases backend connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
