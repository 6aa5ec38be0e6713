package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/pkg/metrics"
)

// SchedulerConfig holds the lifecycle timing. The TTL is read from the
// store's StoreConfig.
type SchedulerConfig struct {
	TickInterval time.Duration
	FadeLead     time.Duration
	FadeDuration time.Duration
	GracePeriod  time.Duration
}

// DefaultSchedulerConfig returns the production timing: fading 5 s before
// expiry, an 800 ms fade and a 2 s grace period.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TickInterval: time.Second,
		FadeLead:     5 * time.Second,
		FadeDuration: 800 * time.Millisecond,
		GracePeriod:  2 * time.Second,
	}
}

// AfterFunc schedules f after d and returns a func that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// SchedulerOption customises a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock replaces time.Now and time.AfterFunc.
func WithSchedulerClock(now func() time.Time, after AfterFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// TickResult summarises one tick.
type TickResult struct {
	Fading int
	Forced int
}

// Scheduler drives markers from active to fading to removed. Elapsed time,
// not tick count, decides every transition, so a missed tick is corrected by
// the next one.
type Scheduler struct {
	cfg    SchedulerConfig
	store  *MarkerStore
	now    func() time.Time
	after  AfterFunc
	logger *slog.Logger
}

// NewScheduler creates a scheduler for store.
func NewScheduler(cfg SchedulerConfig, store *MarkerStore, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		cfg:    cfg,
		store:  store,
		now:    time.Now,
		after:  realAfterFunc,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run ticks every TickInterval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.logger.Info("lifecycle scheduler started",
		"tick", s.cfg.TickInterval.String(),
		"ttl", s.store.Config().TTL.String(),
		"fade_lead", s.cfg.FadeLead.String(),
		"fade_duration", s.cfg.FadeDuration.String(),
		"grace", s.cfg.GracePeriod.String(),
	)

	s.Tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			s.logger.Info("lifecycle scheduler stopped")
			return
		}
	}
}

// Tick evaluates every marker against a single clock reading.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	start := time.Now()
	defer func() { metrics.TickDuration.Observe(time.Since(start).Seconds()) }()

	now := s.now()
	ttl := s.store.Config().TTL
	var res TickResult

	for _, m := range s.store.Markers() {
		elapsed := now.Sub(m.Created())

		if elapsed >= ttl+s.cfg.GracePeriod {
			if s.store.Remove(ctx, m.ID, RemovalGrace) {
				res.Forced++
				s.logger.Warn("marker force-removed after grace period", "id", m.ID, "elapsed", elapsed.String())
			}
			continue
		}

		if elapsed >= ttl-s.cfg.FadeLead {
			id := m.ID
			started := s.store.BeginFade(id, func() func() bool {
				return s.after(s.cfg.FadeDuration, func() {
					s.store.Remove(context.Background(), id, RemovalFaded)
				})
			})
			if started {
				res.Fading++
			}
		}
	}

	s.store.PruneExpired(ctx, now.Add(-s.cfg.GracePeriod), RemovalGrace)
	return res
}

// StateAt derives the fade state of m at now.
func (s *Scheduler) StateAt(m domain.Marker, now time.Time) domain.FadeState {
	return m.StateAt(now, s.cfg.FadeLead)
}
