package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/ports"
	"github.com/samirrijal/fadepin/internal/pkg/metrics"
	"github.com/samirrijal/fadepin/internal/pkg/slotcodec"
	"github.com/samirrijal/fadepin/internal/pkg/telemetry"
)

// ErrInvalidMarkerType is returned by AddMarker for a type outside the closed set.
var ErrInvalidMarkerType = errors.New("invalid marker type")

var tracer = telemetry.Tracer("fadepin/usecases")

// RemovalReason labels why a marker left the canonical set.
type RemovalReason string

const (
	RemovalFaded   RemovalReason = "faded"
	RemovalExpired RemovalReason = "expired"
	RemovalGrace   RemovalReason = "grace"
)

// StoreConfig configures a MarkerStore.
type StoreConfig struct {
	SlotKey string
	TTL     time.Duration
}

// StoreOption customises a MarkerStore.
type StoreOption func(*MarkerStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *MarkerStore) { s.now = now }
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *MarkerStore) { s.newID = newID }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *MarkerStore) { s.logger = l }
}

// WithExpiryScheduler registers an out-of-process expiry hook run after each add.
func WithExpiryScheduler(e ports.ExpiryScheduler) StoreOption {
	return func(s *MarkerStore) { s.expiry = e }
}

// MarkerStore owns the canonical marker set. It is the only writer of the
// durable slot; every other component reads copies.
type MarkerStore struct {
	cfg      StoreConfig
	slots    ports.SlotStore
	notifier ports.ChangeNotifier
	codec    slotcodec.Codec
	expiry   ports.ExpiryScheduler
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger

	mu      sync.Mutex
	markers []domain.Marker
	// fading maps ids that entered the fading state to the cancel func of
	// their pending removal.
	fading map[string]func() bool
	// tombstones holds locally removed ids until their expiresAt so merges
	// with the durable slot do not bring them back.
	tombstones map[string]int64
	// dirty is set when the in-memory set holds changes the slot has not
	// received yet.
	dirty bool

	listenersMu  sync.Mutex
	listeners    map[int]func()
	nextListener int

	unsubscribe func()
}

// NewMarkerStore creates an empty store. Call Open to load the slot and
// start following change notifications.
func NewMarkerStore(cfg StoreConfig, slots ports.SlotStore, notifier ports.ChangeNotifier, codec slotcodec.Codec, opts ...StoreOption) *MarkerStore {
	s := &MarkerStore{
		cfg:        cfg,
		slots:      slots,
		notifier:   notifier,
		codec:      codec,
		now:        time.Now,
		newID:      newMarkerID,
		logger:     slog.Default(),
		fading:     make(map[string]func() bool),
		tombstones: make(map[string]int64),
		listeners:  make(map[int]func()),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func newMarkerID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Config returns the store configuration.
func (s *MarkerStore) Config() StoreConfig {
	return s.cfg
}

// Open loads the durable slot into memory and subscribes to changes of it.
// A failed subscription is logged; the store keeps working locally.
func (s *MarkerStore) Open(ctx context.Context) {
	loaded := s.LoadFromStorage(ctx)

	s.mu.Lock()
	s.markers = loaded
	metrics.CanonicalMarkers.Set(float64(len(s.markers)))
	s.mu.Unlock()

	s.logger.Info("marker store opened", "slot", s.cfg.SlotKey, "markers", len(loaded), "codec", s.codec.Name())

	if s.notifier == nil {
		return
	}
	unsub, err := s.notifier.Subscribe(ctx, s.cfg.SlotKey, func(ctx context.Context, key string) {
		s.Sync(ctx)
	})
	if err != nil {
		s.logger.Warn("slot change subscription failed", "slot", s.cfg.SlotKey, "error", err)
		return
	}
	s.unsubscribe = unsub
}

// Close stops following change notifications and cancels pending fade timers.
func (s *MarkerStore) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.mu.Lock()
	for id, cancel := range s.fading {
		if cancel != nil {
			cancel()
		}
		delete(s.fading, id)
	}
	s.mu.Unlock()
}

// AddMarker places a new marker. The durable slot is re-read and merged
// before writing so concurrent additions by other writers are kept.
// Persistence and broadcast failures are logged, never returned.
func (s *MarkerStore) AddMarker(ctx context.Context, lat, lng float64, t domain.MarkerType) (domain.Marker, error) {
	if !t.Valid() {
		return domain.Marker{}, fmt.Errorf("%w: %d", ErrInvalidMarkerType, uint8(t))
	}

	ctx, span := tracer.Start(ctx, "MarkerStore.AddMarker")
	defer span.End()

	s.mu.Lock()
	now := s.now()
	m := domain.NewMarker(s.newID(), lat, lng, t, now, s.cfg.TTL)

	s.markers = append(s.markers, m)
	persisted := s.writeBackLocked(ctx, now)
	metrics.CanonicalMarkers.Set(float64(len(s.markers)))
	s.mu.Unlock()

	span.SetAttributes(attribute.String("marker.id", m.ID), attribute.String("marker.type", t.String()))
	metrics.MarkersAdded.WithLabelValues(t.String()).Inc()
	s.logger.Debug("marker added", "id", m.ID, "type", t.String(), "lat", lat, "lng", lng)

	if persisted {
		s.publish(ctx)
	}
	s.emit()

	if s.expiry != nil {
		if err := s.expiry.ScheduleExpiry(ctx, s.cfg.SlotKey, m); err != nil {
			s.logger.Warn("schedule expiry failed", "id", m.ID, "error", err)
		}
	}

	return m, nil
}

// LoadFromStorage reads and decodes the durable slot, dropping every marker
// whose expiresAt has passed. Read or decode failures yield an empty set.
func (s *MarkerStore) LoadFromStorage(ctx context.Context) []domain.Marker {
	ctx, span := tracer.Start(ctx, "MarkerStore.LoadFromStorage")
	defer span.End()

	loaded, _ := s.read(ctx, s.now())
	return loaded
}

// RemoveExpired prunes markers whose expiresAt has passed and returns the
// canonical set. A shrunk set is re-persisted and re-broadcast.
func (s *MarkerStore) RemoveExpired(ctx context.Context) []domain.Marker {
	return s.PruneExpired(ctx, s.now(), RemovalExpired)
}

// PruneExpired removes markers with expiresAt <= cutoff.
func (s *MarkerStore) PruneExpired(ctx context.Context, cutoff time.Time, reason RemovalReason) []domain.Marker {
	s.mu.Lock()
	now := s.now()
	limit := cutoff.UnixMilli()

	kept := s.markers[:0:0]
	var removed []string
	for _, m := range s.markers {
		if m.ExpiresAt > limit {
			kept = append(kept, m)
			continue
		}
		removed = append(removed, m.ID)
		s.cancelFadeLocked(m.ID)
	}
	s.pruneTombstonesLocked(now)

	persisted := false
	if len(removed) > 0 || s.dirty {
		s.markers = kept
		persisted = s.writeBackLocked(ctx, now)
		metrics.MarkersRemoved.WithLabelValues(string(reason)).Add(float64(len(removed)))
		metrics.CanonicalMarkers.Set(float64(len(s.markers)))
	}
	out := s.snapshotLocked()
	s.mu.Unlock()

	if persisted {
		s.publish(ctx)
	}
	if len(removed) > 0 {
		s.logger.Debug("pruned expired markers", "ids", removed, "reason", reason)
		s.emit()
	}
	return out
}

// Remove deletes a marker by id. Removing an absent id is a no-op and
// returns false.
func (s *MarkerStore) Remove(ctx context.Context, id string, reason RemovalReason) bool {
	s.mu.Lock()
	idx := -1
	for i, m := range s.markers {
		if m.ID == id {
			idx = i
			break
		}
	}
	s.cancelFadeLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	now := s.now()
	m := s.markers[idx]
	s.tombstones[id] = m.ExpiresAt
	s.markers = append(s.markers[:idx:idx], s.markers[idx+1:]...)
	persisted := s.writeBackLocked(ctx, now)
	metrics.CanonicalMarkers.Set(float64(len(s.markers)))
	s.mu.Unlock()

	metrics.MarkersRemoved.WithLabelValues(string(reason)).Inc()
	s.logger.Debug("marker removed", "id", id, "reason", reason)
	if persisted {
		s.publish(ctx)
	}
	s.emit()
	return true
}

// BeginFade records the fading edge for id. schedule is called at most once
// per marker and returns the cancel func of the pending removal. It reports
// false when the marker is absent or already fading.
func (s *MarkerStore) BeginFade(id string, schedule func() (cancel func() bool)) bool {
	s.mu.Lock()
	if _, ok := s.fading[id]; ok {
		s.mu.Unlock()
		return false
	}
	if !s.containsLocked(id) {
		s.mu.Unlock()
		return false
	}
	var cancel func() bool
	if schedule != nil {
		cancel = schedule()
	}
	s.fading[id] = cancel
	s.mu.Unlock()

	metrics.MarkersFading.Inc()
	s.emit()
	return true
}

// IsFading reports whether id is in the fading state.
func (s *MarkerStore) IsFading(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.fading[id]
	return ok
}

// FadingIDs returns the ids currently fading, sorted.
func (s *MarkerStore) FadingIDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.fading))
	for id := range s.fading {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Markers returns a copy of the canonical set ordered by creation time.
func (s *MarkerStore) Markers() []domain.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Sync reloads the durable slot after another writer changed it. The result
// is the union of the in-memory markers and the durable unexpired markers,
// minus markers removed locally. A marker stays visible while either side
// still holds it.
func (s *MarkerStore) Sync(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "MarkerStore.Sync")
	defer span.End()

	metrics.SlotSyncs.Inc()

	s.mu.Lock()
	now := s.now()
	before := idSet(s.markers)
	durable, res := s.read(ctx, now)
	if res != readOK {
		s.mu.Unlock()
		return
	}
	s.markers = s.mergeLocked(durable)
	after := idSet(s.markers)
	for id := range s.fading {
		if !after[id] {
			s.cancelFadeLocked(id)
		}
	}
	metrics.CanonicalMarkers.Set(float64(len(s.markers)))
	s.mu.Unlock()

	if !sameIDs(before, after) {
		s.emit()
	}
}

// Subscribe registers fn to be called after every change of the canonical
// set or of the fading ids. It returns a func that removes the listener.
func (s *MarkerStore) Subscribe(fn func()) func() {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *MarkerStore) emit() {
	s.listenersMu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// readResult classifies a slot read.
type readResult uint8

const (
	readOK      readResult = iota
	readCorrupt            // container unparsable; the next write replaces it
	readFailed             // backend error; the slot must not be overwritten
)

// read loads the slot. A missing slot is a successful empty read. Records
// that cannot be decoded are skipped one by one and the rest are kept.
func (s *MarkerStore) read(ctx context.Context, now time.Time) ([]domain.Marker, readResult) {
	data, err := s.slots.Load(ctx, s.cfg.SlotKey)
	if errors.Is(err, ports.ErrSlotNotFound) {
		return nil, readOK
	}
	if err != nil {
		metrics.SlotReadFailures.WithLabelValues("load").Inc()
		s.logger.Warn("slot read failed, treating as empty", "slot", s.cfg.SlotKey, "error", err)
		return nil, readFailed
	}
	if len(data) == 0 {
		return nil, readOK
	}

	decoded, err := s.codec.Decode(data)
	var partial *slotcodec.PartialError
	switch {
	case errors.As(err, &partial):
		for _, rec := range partial.Skipped {
			metrics.SlotReadFailures.WithLabelValues("decode").Inc()
			s.logger.Warn("skipping unreadable slot record",
				"slot", s.cfg.SlotKey, "index", rec.Index, "id", rec.ID, "error", rec.Err)
		}
	case err != nil:
		metrics.SlotReadFailures.WithLabelValues("decode").Inc()
		s.logger.Warn("slot decode failed, treating as empty", "slot", s.cfg.SlotKey, "codec", s.codec.Name(), "error", err)
		return nil, readCorrupt
	}

	seen := make(map[string]bool, len(decoded))
	out := make([]domain.Marker, 0, len(decoded))
	for _, m := range decoded {
		if m.ExpiresAt == 0 {
			m.ExpiresAt = m.CreatedAt + s.cfg.TTL.Milliseconds()
		}
		if m.ExpiredAt(now) || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out, readOK
}

// writeBackLocked merges the durable slot into the in-memory set and
// persists the result. When the slot cannot be loaded the write is skipped
// and retried by a later write or prune, so another writer's markers are
// never overwritten blindly.
func (s *MarkerStore) writeBackLocked(ctx context.Context, now time.Time) bool {
	durable, res := s.read(ctx, now)
	s.markers = s.mergeLocked(durable)
	if res == readFailed {
		s.dirty = true
		s.logger.Warn("slot write deferred until the slot is readable", "slot", s.cfg.SlotKey)
		return false
	}
	if !s.persistLocked(ctx, now) {
		s.dirty = true
		return false
	}
	s.dirty = false
	return true
}

// mergeLocked returns in-memory ∪ durable markers without local tombstones,
// ordered by creation time. durable is already expiry-filtered by read;
// in-memory expiry is left to the scheduler.
func (s *MarkerStore) mergeLocked(durable []domain.Marker) []domain.Marker {
	seen := make(map[string]bool, len(s.markers)+len(durable))
	out := make([]domain.Marker, 0, len(s.markers)+len(durable))
	add := func(m domain.Marker) {
		if seen[m.ID] {
			return
		}
		if _, gone := s.tombstones[m.ID]; gone {
			return
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	for _, m := range s.markers {
		add(m)
	}
	for _, m := range durable {
		add(m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}

// persistLocked writes the canonical set. It reports whether the write
// succeeded so the caller knows to broadcast.
func (s *MarkerStore) persistLocked(ctx context.Context, now time.Time) bool {
	data, err := s.codec.Encode(s.markers)
	if err != nil {
		metrics.SlotWriteFailures.Inc()
		s.logger.Error("slot encode failed", "slot", s.cfg.SlotKey, "error", err)
		return false
	}

	var ttl time.Duration
	for _, m := range s.markers {
		if left := m.Expires().Sub(now); left > ttl {
			ttl = left
		}
	}

	if err := s.slots.Save(ctx, s.cfg.SlotKey, data, ttl); err != nil {
		metrics.SlotWriteFailures.Inc()
		s.logger.Error("slot write failed", "slot", s.cfg.SlotKey, "error", err)
		return false
	}
	return true
}

func (s *MarkerStore) publish(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, s.cfg.SlotKey); err != nil {
		metrics.NotifyFailures.Inc()
		s.logger.Warn("slot change broadcast failed", "slot", s.cfg.SlotKey, "error", err)
	}
}

func (s *MarkerStore) cancelFadeLocked(id string) {
	cancel, ok := s.fading[id]
	if !ok {
		return
	}
	if cancel != nil {
		cancel()
	}
	delete(s.fading, id)
}

func (s *MarkerStore) pruneTombstonesLocked(now time.Time) {
	ms := now.UnixMilli()
	for id, expiresAt := range s.tombstones {
		if expiresAt <= ms {
			delete(s.tombstones, id)
		}
	}
}

func (s *MarkerStore) containsLocked(id string) bool {
	for _, m := range s.markers {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (s *MarkerStore) snapshotLocked() []domain.Marker {
	out := make([]domain.Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

func idSet(markers []domain.Marker) map[string]bool {
	set := make(map[string]bool, len(markers))
	for _, m := range markers {
		set[m.ID] = true
	}
	return set
}

func sameIDs(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
