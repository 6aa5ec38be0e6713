package natsadapter

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Subscribe calls handler for every change announcement of key. Handlers run
// on the NATS delivery goroutine, one message at a time.
func (n *Notifier) Subscribe(ctx context.Context, key string, handler func(ctx context.Context, key string)) (func(), error) {
	sub, err := n.conn.Subscribe(Subject(key), keyFilter(ctx, key, handler))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}

	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	return func() {
		_ = sub.Unsubscribe()
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, s := range n.subs {
			if s == sub {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				break
			}
		}
	}, nil
}

// keyFilter drops announcements for other keys that sanitise to the same
// subject ("a.b" and "a_b" share one).
func keyFilter(ctx context.Context, key string, handler func(ctx context.Context, key string)) nats.MsgHandler {
	return func(msg *nats.Msg) {
		if string(msg.Data) != key {
			return
		}
		handler(ctx, key)
	}
}
