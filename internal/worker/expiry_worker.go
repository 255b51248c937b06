package worker

import (
	"context"
	"time"

	"github.com/prostuti-app/prostuti-backend/internal/service"
	"github.com/rs/zerolog"
)

// ExpiryGrace is how far past its deadline an attempt must be before
// the sweep force-expires it. Keeps the sweep from racing a live
// session whose own countdown is about to fire.
const ExpiryGrace = 30 * time.Second

// ExpiryWorker periodically force-finishes in-progress attempts whose
// deadline passed with no live session tracking them. Those attempts
// are orphans of a server restart; every running session expires
// itself.
type ExpiryWorker struct {
	attemptService *service.AttemptService
	interval       time.Duration
	log            zerolog.Logger
}

func NewExpiryWorker(attemptService *service.AttemptService, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		attemptService: attemptService,
		interval:       interval,
		log:            log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ExpiryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run one sweep immediately so a crashed server catches up on boot.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpiryWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	expired, err := w.attemptService.ExpireOverdue(ctx, ExpiryGrace)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if expired > 0 {
		w.log.Info().Int("count", expired).Msg("expired overdue attempts")
	}
}
