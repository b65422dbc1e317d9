// Package queue hands session results and integrity events to Redis, where
// workers pick them up for persistence and proctors watch the live feed.
package queue

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
	"github.com/stemsi/exstem-engine/internal/model"
)

// ErrResultNotFound is returned when no cached result exists for a session.
var ErrResultNotFound = errors.New("result not found")

// ResultPublisher caches a submitted outcome and enqueues it for the
// result worker. It satisfies session.ResultSink.
type ResultPublisher struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewResultPublisher creates a publisher whose cached results expire after
// ttl. A zero ttl keeps them forever.
func NewResultPublisher(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *ResultPublisher {
	return &ResultPublisher{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "result_publisher").Logger(),
	}
}

// Publish stores the outcome under the session result key and pushes it onto
// the persistence queue in one pipeline.
func (p *ResultPublisher) Publish(ctx context.Context, outcome *model.Outcome) error {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	pipe := p.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.SessionResultKey(outcome.SessionID), raw, p.ttl)
	pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}

	p.log.Debug().
		Str("session_id", outcome.SessionID.String()).
		Int("bytes", len(raw)).
		Msg("Result enqueued")
	return nil
}

// Get reads a cached outcome.
func (p *ResultPublisher) Get(ctx context.Context, sessionID uuid.UUID) (*model.Outcome, error) {
	raw, err := p.rdb.Get(ctx, config.CacheKey.SessionResultKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	var out model.Outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &out, nil
}
