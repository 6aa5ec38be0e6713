// Package memory provides in-process slot storage and change notification.
// Several MarkerStores sharing one Slot and one Bus behave like browser tabs
// sharing local storage.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/fadepin/internal/core/ports"
)

// Slot implements ports.SlotStore in memory. TTLs are ignored.
type Slot struct {
	mu     sync.RWMutex
	values map[string][]byte
	saves  int
}

func NewSlot() *Slot {
	return &Slot{values: make(map[string][]byte)}
}

func (s *Slot) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, ports.ErrSlotNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Slot) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(data))
	copy(v, data)
	s.values[key] = v
	s.saves++
	return nil
}

// Put overwrites a slot with raw bytes, bypassing any codec.
func (s *Slot) Put(key string, data []byte) {
	s.mu.Lock()
	s.values[key] = data
	s.mu.Unlock()
}

// Saves returns how many times Save was called.
func (s *Slot) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
