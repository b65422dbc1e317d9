package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/queue"
	"github.com/stemsi/exstem-engine/internal/repository"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// IntegrityStore is the persistence side of the integrity worker.
type IntegrityStore interface {
	CopyIn(ctx context.Context, rows []repository.IntegrityEventRow) (int64, error)
	Insert(ctx context.Context, row repository.IntegrityEventRow) error
}

// IntegrityWorker drains the integrity queue into exam_integrity_events.
type IntegrityWorker struct {
	store IntegrityStore
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewIntegrityWorker(store IntegrityStore, rdb *redis.Client, log zerolog.Logger) *IntegrityWorker {
	return &IntegrityWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "integrity_worker").Logger(),
	}
}

func (w *IntegrityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("IntegrityWorker started")

	buffer := make([]queue.IntegrityPayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Flush on size or age
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Graceful shutdown
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistIntegrityQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var payload queue.IntegrityPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON can never succeed on retry.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, payload)
	}
}

// toRow converts a queue payload into a table row.
func toRow(p queue.IntegrityPayload) (repository.IntegrityEventRow, error) {
	id, err := uuid.Parse(p.SessionID)
	if err != nil {
		return repository.IntegrityEventRow{}, fmt.Errorf("session_id %q: %w", p.SessionID, err)
	}
	if !p.Kind.Valid() {
		return repository.IntegrityEventRow{}, fmt.Errorf("kind %q is not an integrity signal", p.Kind)
	}
	return repository.IntegrityEventRow{
		SessionID:   id,
		Kind:        p.Kind,
		Severity:    p.Severity,
		TabSwitches: p.TabSwitches,
		Message:     p.Message,
		RecordedAt:  time.Unix(p.Timestamp, 0).UTC(),
	}, nil
}

// flushSafe attempts a COPY, then row-by-row inserts, then requeue.
func (w *IntegrityWorker) flushSafe(ctx context.Context, batch []queue.IntegrityPayload) {
	rows := make([]repository.IntegrityEventRow, 0, len(batch))
	for _, p := range batch {
		row, err := toRow(p)
		if err != nil {
			w.log.Error().Err(err).Msg("Dropping invalid integrity event")
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return
	}

	if _, err := w.store.CopyIn(ctx, rows); err != nil {
		w.log.Warn().Err(err).Int("count", len(rows)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, rows)
	}
}

func (w *IntegrityWorker) fallbackInsert(ctx context.Context, rows []repository.IntegrityEventRow) {
	var requeueList []repository.IntegrityEventRow

	for _, row := range rows {
		if err := w.store.Insert(ctx, row); err != nil {
			w.log.Error().Err(err).Str("session_id", row.SessionID.String()).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, row)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *IntegrityWorker) requeue(ctx context.Context, rows []repository.IntegrityEventRow) {
	pipe := w.rdb.Pipeline()
	for _, row := range rows {
		data, _ := json.Marshal(queue.IntegrityPayload{
			SessionID:   row.SessionID.String(),
			Kind:        row.Kind,
			Severity:    row.Severity,
			TabSwitches: row.TabSwitches,
			Message:     row.Message,
			Timestamp:   row.RecordedAt.Unix(),
		})
		pipe.RPush(ctx, config.WorkerKey.PersistIntegrityQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(rows)).Msg("Requeued failed items back to Redis")
	time.Sleep(2 * time.Second)
}

func (w *IntegrityWorker) shutdown(buffer []queue.IntegrityPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
