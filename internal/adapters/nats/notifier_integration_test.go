//go:build integration
// +build integration

package natsadapter_test

import (
	"context"
	"testing"
	"time"

	natsadapter "github.com/samirrijal/fadepin/internal/adapters/nats"
	"github.com/samirrijal/fadepin/internal/pkg/config"
)

func TestNotifier_PublishSubscribe(t *testing.T) {
	cfg, err := config.Load("fadepin-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	n, err := natsadapter.NewNotifier(cfg.NATS.URL)
	if err != nil {
		t.Fatalf("connect nats: %v", err)
	}
	defer n.Close()

	got := make(chan string, 1)
	unsub, err := n.Subscribe(context.Background(), "geo_markers_test", func(ctx context.Context, key string) {
		got <- key
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	if err := n.Publish(context.Background(), "geo_markers_test"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case key := <-got:
		if key != "geo_markers_test" {
			t.Errorf("expected geo_markers_test, got %s", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification received")
	}
}
