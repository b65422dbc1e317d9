package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore is the persistence side of the result worker.
type ResultStore interface {
	BulkUpsert(ctx context.Context, batch []*model.Outcome) error
	Upsert(ctx context.Context, o *model.Outcome) error
}

// ResultWorker drains the result queue into exam_results.
type ResultWorker struct {
	store ResultStore
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewResultWorker(store ResultStore, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.Outcome, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested, flushing remaining batch")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flushSafe(shutdownCtx, batch)
			cancel()
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error, sleeping 3s")
					time.Sleep(3 * time.Second)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			o, err := decodeOutcome([]byte(item[1]))
			if err != nil {
				w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed result payload")
				continue
			}

			batch = append(batch, o)
		}
	}
}

func decodeOutcome(raw []byte) (*model.Outcome, error) {
	var o model.Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	if o.SessionID == uuid.Nil {
		return nil, errors.New("missing session_id")
	}
	return &o, nil
}

// ----------------------------------------------------------------
// Batch upsert with per-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.Outcome) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.BulkUpsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk result upsert failed, using fallback")

		var requeue []*model.Outcome
		for _, o := range batch {
			if err := w.store.Upsert(ctx, o); err != nil {
				w.log.Error().Err(err).Str("session_id", o.SessionID.String()).Msg("Result upsert failed, requeueing")
				requeue = append(requeue, o)
			}
		}
		w.requeue(ctx, requeue)
		return
	}

	w.log.Debug().Int("count", len(batch)).Msg("Results persisted")
}

func (w *ResultWorker) requeue(ctx context.Context, items []*model.Outcome) {
	if len(items) == 0 {
		return
	}

	pipe := w.rdb.Pipeline()
	for _, o := range items {
		raw, _ := json.Marshal(o)
		pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue results to Redis. Data loss occurred.")
		return
	}

	w.log.Info().Int("count", len(items)).Msg("Requeued failed results back to Redis")
	// Back off so a database outage does not turn into a hot loop.
	time.Sleep(2 * time.Second)
}
