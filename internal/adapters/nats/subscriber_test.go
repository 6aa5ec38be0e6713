package natsadapter

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestKeyFilter_IgnoresCollidingKeys(t *testing.T) {
	if Subject("a.b") != Subject("a_b") {
		t.Fatal("expected a.b and a_b to share a subject")
	}

	var got []string
	h := keyFilter(context.Background(), "a.b", func(_ context.Context, key string) {
		got = append(got, key)
	})

	h(&nats.Msg{Subject: Subject("a.b"), Data: []byte("a_b")})
	h(&nats.Msg{Subject: Subject("a.b"), Data: []byte("a.b")})

	if len(got) != 1 || got[0] != "a.b" {
		t.Fatalf("expected only a.b delivered, got %v", got)
	}
}
