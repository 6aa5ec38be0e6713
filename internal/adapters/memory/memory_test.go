package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/fadepin/internal/adapters/memory"
	"github.com/samirrijal/fadepin/internal/core/ports"
)

func TestSlot_LoadMissing(t *testing.T) {
	s := memory.NewSlot()
	_, err := s.Load(context.Background(), "k")
	if !errors.Is(err, ports.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestSlot_SaveCopiesInput(t *testing.T) {
	s := memory.NewSlot()
	buf := []byte("abc")
	if err := s.Save(context.Background(), "k", buf, 0); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'

	got, err := s.Load(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc" {
		t.Errorf("expected abc, got %s", got)
	}
	if s.Saves() != 1 {
		t.Errorf("expected 1 save, got %d", s.Saves())
	}
}

func TestBus_PublishAndUnsubscribe(t *testing.T) {
	b := memory.NewBus()
	ctx := context.Background()

	var got []string
	unsub, err := b.Subscribe(ctx, "slot", func(ctx context.Context, key string) {
		got = append(got, key)
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _ = b.Subscribe(ctx, "other", func(ctx context.Context, key string) {
		t.Errorf("handler for other key called with %s", key)
	})

	_ = b.Publish(ctx, "slot")
	unsub()
	_ = b.Publish(ctx, "slot")

	if len(got) != 1 || got[0] != "slot" {
		t.Errorf("expected one notification for slot, got %v", got)
	}
}
