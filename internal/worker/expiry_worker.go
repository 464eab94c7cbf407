package worker

import (
	"context"
	"time"

	"github.com/classquiz/classquiz-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// ExpiryBatchSize caps how many overdue attempts one sweep closes.
	ExpiryBatchSize = 200
)

// ExpiryWorker sweeps for in-progress attempts whose time budget has run out
// and force-closes them with a zero score. Clients auto-submit on their own
// timer; this worker is the server-side backstop for students who closed the
// tab, lost connectivity, or tampered with the clock.
type ExpiryWorker struct {
	attemptRepo *repository.AttemptRepository
	interval    time.Duration
	log         zerolog.Logger
}

func NewExpiryWorker(attemptRepo *repository.AttemptRepository, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		attemptRepo: attemptRepo,
		interval:    interval,
		log:         log.With().Str("component", "expiry_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ExpiryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Running final sweep...")
			w.sweepSafe(context.Background())
			return

		case <-ticker.C:
			w.sweepSafe(ctx)
		}
	}
}

func (w *ExpiryWorker) sweepSafe(ctx context.Context) {
	closed, err := w.Sweep(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("Sweep failed")
		return
	}
	if closed > 0 {
		w.log.Info().Int("closed", closed).Msg("Force-closed overdue attempts")
	}
}

// ----------------------------------------------------------------
// Bulk close using UNNEST
// ----------------------------------------------------------------

// Sweep finds attempts past their deadline and closes them in one bulk
// update with a zero score and the full time budget recorded as time taken.
// An attempt submitted between the query and the update is left alone: the
// bulk update only touches rows still marked in progress.
func (w *ExpiryWorker) Sweep(ctx context.Context, now time.Time) (int, error) {
	overdue, err := w.attemptRepo.ListOverdue(ctx, now, ExpiryBatchSize)
	if err != nil {
		return 0, err
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	n := len(overdue)
	ids := make([]uuid.UUID, n)
	scores := make([]int, n)
	timesTaken := make([]int, n)
	for i, o := range overdue {
		ids[i] = o.AttemptID
		scores[i] = 0
		timesTaken[i] = o.Budget
	}

	if err := w.attemptRepo.BulkComplete(ctx, ids, scores, timesTaken); err != nil {
		return 0, err
	}
	return n, nil
}
