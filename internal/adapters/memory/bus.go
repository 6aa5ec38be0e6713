package memory

import (
	"context"
	"sync"
)

// Bus implements ports.ChangeNotifier with synchronous in-process fan-out.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(ctx context.Context, key string)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]func(ctx context.Context, key string))}
}

// Publish calls every handler subscribed to key on the caller's goroutine.
func (b *Bus) Publish(ctx context.Context, key string) error {
	b.mu.Lock()
	handlers := make([]func(ctx context.Context, key string), 0, len(b.subs[key]))
	for _, h := range b.subs[key] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, key)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, key string, handler func(ctx context.Context, key string)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[key] == nil {
		b.subs[key] = make(map[int]func(ctx context.Context, key string))
	}
	b.subs[key][id] = handler

	return func() {
		b.mu.Lock()
		delete(b.subs[key], id)
		b.mu.Unlock()
	}, nil
}
