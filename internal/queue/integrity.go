package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/model"
)

// IntegrityPayload is one integrity event as it travels through Redis.
type IntegrityPayload struct {
	SessionID   string              `json:"session_id"`
	Kind        model.IntegrityKind `json:"kind"`
	Severity    model.Severity      `json:"severity"`
	TabSwitches int                 `json:"tab_switches"`
	Message     string              `json:"message,omitempty"`
	Timestamp   int64               `json:"timestamp"`
}

// IntegrityPublisher fans integrity warnings out to the proctor channels
// and the persistence queue.
type IntegrityPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewIntegrityPublisher creates an IntegrityPublisher.
func NewIntegrityPublisher(rdb *redis.Client, log zerolog.Logger) *IntegrityPublisher {
	return &IntegrityPublisher{
		rdb: rdb,
		log: log.With().Str("component", "integrity_publisher").Logger(),
	}
}

// PublishWarning publishes w for sessionID. Delivery is best effort: the
// exam never waits on proctoring.
func (p *IntegrityPublisher) PublishWarning(ctx context.Context, sessionID uuid.UUID, w model.Warning) error {
	at := w.At
	if at.IsZero() {
		at = time.Now()
	}
	payload := IntegrityPayload{
		SessionID:   sessionID.String(),
		Kind:        w.Kind,
		Severity:    w.Severity,
		TabSwitches: w.Count,
		Message:     w.Message,
		Timestamp:   at.Unix(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal integrity payload: %w", err)
	}

	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, config.CacheKey.SessionMonitorChannel(sessionID), raw)
	pipe.Publish(ctx, config.CacheKey.MonitorChannel(), raw)
	pipe.RPush(ctx, config.WorkerKey.PersistIntegrityQueue, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish integrity event: %w", err)
	}
	return nil
}
