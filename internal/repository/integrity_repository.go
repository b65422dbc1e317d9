package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/exstem-engine/internal/model"
)

// IntegrityEventRow is one persisted integrity event.
type IntegrityEventRow struct {
	ID          int64               `json:"id"`
	SessionID   uuid.UUID           `json:"session_id"`
	Kind        model.IntegrityKind `json:"kind"`
	Severity    model.Severity      `json:"severity"`
	TabSwitches int                 `json:"tab_switches"`
	Message     string              `json:"message"`
	RecordedAt  time.Time           `json:"recorded_at"`
}

var integrityColumns = []string{"session_id", "kind", "severity", "tab_switches", "message", "recorded_at"}

// IntegrityRepository handles exam_integrity_events data access.
type IntegrityRepository struct {
	pool *pgxpool.Pool
}

// NewIntegrityRepository creates a new IntegrityRepository.
func NewIntegrityRepository(pool *pgxpool.Pool) *IntegrityRepository {
	return &IntegrityRepository{pool: pool}
}

// CopyIn bulk-loads rows with the COPY protocol.
func (r *IntegrityRepository) CopyIn(ctx context.Context, rows []IntegrityEventRow) (int64, error) {
	src := make([][]interface{}, 0, len(rows))
	for _, e := range rows {
		src = append(src, []interface{}{
			e.SessionID, string(e.Kind), string(e.Severity), e.TabSwitches, e.Message, e.RecordedAt,
		})
	}
	return r.pool.CopyFrom(ctx, pgx.Identifier{"exam_integrity_events"}, integrityColumns, pgx.CopyFromRows(src))
}

// Insert writes a single row.
func (r *IntegrityRepository) Insert(ctx context.Context, e IntegrityEventRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_integrity_events (session_id, kind, severity, tab_switches, message, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.SessionID, e.Kind, e.Severity, e.TabSwitches, e.Message, e.RecordedAt,
	)
	return err
}

// ListBySession returns a session's events in the order they were observed.
func (r *IntegrityRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]IntegrityEventRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, kind, severity, tab_switches, message, recorded_at
		 FROM exam_integrity_events
		 WHERE session_id = $1
		 ORDER BY recorded_at, id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IntegrityEventRow
	for rows.Next() {
		var e IntegrityEventRow
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Severity, &e.TabSwitches, &e.Message, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
