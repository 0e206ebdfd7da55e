package settings

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDrainInterval is the period of the background drain.
const DefaultDrainInterval = 2 * time.Second

// Scheduler drains a Broadcaster on a fixed interval.
type Scheduler struct {
	broadcaster *Broadcaster
	cancel      context.CancelFunc
	done        chan struct{}
	interval    time.Duration
	mu          sync.Mutex
}

// NewScheduler creates a scheduler. A non-positive interval uses
// DefaultDrainInterval.
func NewScheduler(b *Broadcaster, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	return &Scheduler{
		broadcaster: b,
		interval:    interval,
	}
}

// Start launches the drain loop. Calling Start on a running scheduler does
// nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Debug("Settings drain scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Settings drain scheduler stopped")
			return
		case <-ticker.C:
			s.broadcaster.Drain(ctx)
		}
	}
}

// Trigger runs a drain immediately on the calling goroutine.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	return s.broadcaster.Drain(ctx)
}

// Stop ends the drain loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
