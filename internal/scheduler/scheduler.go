package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pruner removes expired cache entries
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// TokenRenewer is the token surface of a Twitch client
type TokenRenewer interface {
	IsAuthorized() bool
	Authorize(ctx context.Context) (time.Time, error)
}

// Scheduler runs periodic gateway maintenance: it prunes the user cache
// and renews the app access token before requests find it stale.
type Scheduler struct {
	pruner   Pruner
	renewer  TokenRenewer
	interval time.Duration
	timeout  time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

// NewScheduler creates a new scheduler. Either pruner or renewer may be nil.
func NewScheduler(pruner Pruner, renewer TokenRenewer, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pruner:   pruner,
		renewer:  renewer,
		interval: interval,
		timeout:  interval,
		stopChan: make(chan struct{}),
		logger:   logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler loop. It renews the token once up front.
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopChan:
			s.logger.Info("Scheduler stopped")
			return
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// tick performs one cycle of the scheduler
func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.renewToken(ctx)
	s.pruneCache(ctx)
}

func (s *Scheduler) renewToken(ctx context.Context) {
	if s.renewer == nil || s.renewer.IsAuthorized() {
		return
	}

	expiresAt, err := s.renewer.Authorize(ctx)
	if err != nil {
		s.logger.Error("Failed to renew app access token", "error", err)
		return
	}
	s.logger.Info("App access token renewed", "expires_at", expiresAt)
}

func (s *Scheduler) pruneCache(ctx context.Context) {
	if s.pruner == nil {
		return
	}

	pruned, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("Failed to prune user cache", "error", err)
		return
	}
	if pruned > 0 {
		s.logger.Debug("Pruned user cache", "entries", pruned)
	}
}
