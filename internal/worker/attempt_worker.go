package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prostuti-app/prostuti-backend/internal/config"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	AttemptBatchSize    = 50
	AttemptBatchTimeout = 2 * time.Second
	AttemptPollTimeout  = 1 * time.Second
)

// AttemptWorker consumes persist_attempts_queue and writes finished
// attempts to PostgreSQL in batches.
type AttemptWorker struct {
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

func NewAttemptWorker(attemptRepo *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		attemptRepo: attemptRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *AttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttemptWorker started")

	batch := make([]*model.TestAttempt, 0, AttemptBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= AttemptBatchSize || time.Since(lastFlush) >= AttemptBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, AttemptPollTimeout, config.WorkerKey.PersistAttemptsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var a model.TestAttempt
			if err := json.Unmarshal([]byte(item[1]), &a); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &a)
		}
	}
}

// ----------------------------------------------------------------
// Batch Update Wrapper
// ----------------------------------------------------------------

func (w *AttemptWorker) flushSafe(ctx context.Context, batch []*model.TestAttempt) {
	if len(batch) == 0 {
		return
	}

	if err := w.attemptRepo.BulkFinalize(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk finalize failed, using fallback")

		for _, a := range batch {
			if err := w.attemptRepo.Finalize(ctx, a); err != nil {
				w.log.Error().Err(err).Msg("single finalize failed — requeueing")
				raw, _ := json.Marshal(a)
				w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw)
			}
		}
		return
	}

	// After successful finalization → delete attempt buffers in Redis
	w.bulkClearAttemptCache(ctx, batch)
}

// ----------------------------------------------------------------
// BULK Redis DEL for clearing autosave buffers and start timestamps
// ----------------------------------------------------------------

func (w *AttemptWorker) bulkClearAttemptCache(ctx context.Context, batch []*model.TestAttempt) {
	pipe := w.rdb.Pipeline()

	for _, a := range batch {
		pipe.Del(ctx, config.CacheKey.AttemptAnswersKey(a.TestID.String(), a.StudentID))
		pipe.Del(ctx, config.CacheKey.AttemptStartKey(a.TestID.String(), a.StudentID))
	}

	_, _ = pipe.Exec(ctx)
}
