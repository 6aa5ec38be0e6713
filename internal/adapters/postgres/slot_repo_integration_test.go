//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/fadepin/internal/adapters/postgres"
	"github.com/samirrijal/fadepin/internal/core/ports"
	"github.com/samirrijal/fadepin/internal/pkg/config"
)

// setupTestDB connects to the test database. Run cmd/migrate up first.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("fadepin-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestSlotRepo_SaveLoad(t *testing.T) {
	repo := postgres.NewSlotRepo(setupTestDB(t))
	ctx := context.Background()
	key := "fadepin_test_" + time.Now().Format("150405.000000")

	if _, err := repo.Load(ctx, key); !errors.Is(err, ports.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
	if err := repo.Save(ctx, key, []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, key, []byte(`[1]`), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `[1]` {
		t.Errorf("expected [1], got %s", got)
	}
}

func TestSlotRepo_DeleteExpired(t *testing.T) {
	repo := postgres.NewSlotRepo(setupTestDB(t))
	ctx := context.Background()
	key := "fadepin_test_exp_" + time.Now().Format("150405.000000")

	if err := repo.Save(ctx, key, []byte(`[]`), time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := repo.Load(ctx, key); !errors.Is(err, ports.ErrSlotNotFound) {
		t.Fatalf("expected expired row to be hidden, got %v", err)
	}
	n, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n < 1 {
		t.Errorf("expected at least one deleted row, got %d", n)
	}
}
