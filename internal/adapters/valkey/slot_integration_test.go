//go:build integration
// +build integration

package valkey_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/fadepin/internal/adapters/valkey"
	"github.com/samirrijal/fadepin/internal/core/ports"
	"github.com/samirrijal/fadepin/internal/pkg/config"
)

func setupSlot(t *testing.T) *valkey.Slot {
	cfg, err := config.Load("fadepin-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		t.Fatalf("connect valkey: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSlot_SaveLoad(t *testing.T) {
	s := setupSlot(t)
	ctx := context.Background()
	key := "fadepin_test_" + time.Now().Format("150405.000000")

	if _, err := s.Load(ctx, key); !errors.Is(err, ports.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}

	payload := []byte{0x81, 0x00, 0xff}
	if err := s.Save(ctx, key, payload, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected %x, got %x", payload, got)
	}
}

func TestSlot_ExpiresWithTTL(t *testing.T) {
	s := setupSlot(t)
	ctx := context.Background()
	key := "fadepin_test_ttl_" + time.Now().Format("150405.000000")

	if err := s.Save(ctx, key, []byte("[]"), 50*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(150 * time.Millisecond)

	if _, err := s.Load(ctx, key); !errors.Is(err, ports.ErrSlotNotFound) {
		t.Fatalf("expected key to expire, got %v", err)
	}
}
