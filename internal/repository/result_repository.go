package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/exstem-engine/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ResultSummary is one row of exam_results without the full outcome
// document.
type ResultSummary struct {
	SessionID   uuid.UUID          `json:"session_id"`
	Title       string             `json:"title"`
	Reason      model.SubmitReason `json:"reason"`
	SubmittedAt time.Time          `json:"submitted_at"`
	TotalMarks  float64            `json:"total_marks"`
	MaxMarks    float64            `json:"max_marks"`
	Percentage  float64            `json:"percentage"`
	TabSwitches int                `json:"tab_switches"`
	Flagged     bool               `json:"flagged"`
}

// ResultRepository handles exam_results data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Upsert writes a single outcome. Re-delivery of the same session overwrites
// the previous row.
func (r *ResultRepository) Upsert(ctx context.Context, o *model.Outcome) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_results (
			session_id, title, reason, started_at, submitted_at,
			total_questions, correct_count, incorrect_count, unattempted_count,
			total_marks, max_marks, percentage, tab_switches, flagged, outcome
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::jsonb)
		 ON CONFLICT (session_id) DO UPDATE SET
			reason = EXCLUDED.reason,
			submitted_at = EXCLUDED.submitted_at,
			total_questions = EXCLUDED.total_questions,
			correct_count = EXCLUDED.correct_count,
			incorrect_count = EXCLUDED.incorrect_count,
			unattempted_count = EXCLUDED.unattempted_count,
			total_marks = EXCLUDED.total_marks,
			max_marks = EXCLUDED.max_marks,
			percentage = EXCLUDED.percentage,
			tab_switches = EXCLUDED.tab_switches,
			flagged = EXCLUDED.flagged,
			outcome = EXCLUDED.outcome,
			updated_at = NOW()`,
		o.SessionID, o.Title, o.Reason, o.StartedAt, o.SubmittedAt,
		o.Result.TotalQuestions, o.Result.CorrectCount, o.Result.IncorrectCount, o.Result.UnattemptedCount,
		o.Result.TotalMarks, o.Result.MaxMarks, o.Result.Percentage,
		o.Integrity.TabSwitches, o.Integrity.Flagged, string(raw),
	)
	return err
}

// BulkUpsert writes many outcomes in one statement using UNNEST.
func (r *ResultRepository) BulkUpsert(ctx context.Context, batch []*model.Outcome) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, n)
	titles := make([]string, n)
	reasons := make([]string, n)
	startedAts := make([]time.Time, n)
	submittedAts := make([]time.Time, n)
	totals := make([]int32, n)
	corrects := make([]int32, n)
	incorrects := make([]int32, n)
	unattempted := make([]int32, n)
	marks := make([]float64, n)
	maxMarks := make([]float64, n)
	percentages := make([]float64, n)
	tabSwitches := make([]int32, n)
	flagged := make([]bool, n)
	outcomes := make([]string, n)

	for i, o := range batch {
		raw, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal outcome %s: %w", o.SessionID, err)
		}
		ids[i] = o.SessionID
		titles[i] = o.Title
		reasons[i] = string(o.Reason)
		startedAts[i] = o.StartedAt
		submittedAts[i] = o.SubmittedAt
		totals[i] = int32(o.Result.TotalQuestions)
		corrects[i] = int32(o.Result.CorrectCount)
		incorrects[i] = int32(o.Result.IncorrectCount)
		unattempted[i] = int32(o.Result.UnattemptedCount)
		marks[i] = o.Result.TotalMarks
		maxMarks[i] = o.Result.MaxMarks
		percentages[i] = o.Result.Percentage
		tabSwitches[i] = int32(o.Integrity.TabSwitches)
		flagged[i] = o.Integrity.Flagged
		outcomes[i] = string(raw)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO exam_results (
			session_id, title, reason, started_at, submitted_at,
			total_questions, correct_count, incorrect_count, unattempted_count,
			total_marks, max_marks, percentage, tab_switches, flagged, outcome
		)
		SELECT u.session_id, u.title, u.reason, u.started_at, u.submitted_at,
		       u.total_questions, u.correct_count, u.incorrect_count, u.unattempted_count,
		       u.total_marks, u.max_marks, u.percentage, u.tab_switches, u.flagged, u.outcome::jsonb
		FROM UNNEST(
			$1::uuid[], $2::text[], $3::text[], $4::timestamptz[], $5::timestamptz[],
			$6::int[], $7::int[], $8::int[], $9::int[],
			$10::float8[], $11::float8[], $12::float8[], $13::int[], $14::bool[], $15::text[]
		) AS u (
			session_id, title, reason, started_at, submitted_at,
			total_questions, correct_count, incorrect_count, unattempted_count,
			total_marks, max_marks, percentage, tab_switches, flagged, outcome
		)
		ON CONFLICT (session_id) DO UPDATE SET
			reason = EXCLUDED.reason,
			submitted_at = EXCLUDED.submitted_at,
			total_questions = EXCLUDED.total_questions,
			correct_count = EXCLUDED.correct_count,
			incorrect_count = EXCLUDED.incorrect_count,
			unattempted_count = EXCLUDED.unattempted_count,
			total_marks = EXCLUDED.total_marks,
			max_marks = EXCLUDED.max_marks,
			percentage = EXCLUDED.percentage,
			tab_switches = EXCLUDED.tab_switches,
			flagged = EXCLUDED.flagged,
			outcome = EXCLUDED.outcome,
			updated_at = NOW()`,
		ids, titles, reasons, startedAts, submittedAts,
		totals, corrects, incorrects, unattempted,
		marks, maxMarks, percentages, tabSwitches, flagged, outcomes,
	)
	return err
}

// GetOutcome returns the stored outcome document of a session.
func (r *ResultRepository) GetOutcome(ctx context.Context, sessionID uuid.UUID) (*model.Outcome, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT outcome FROM exam_results WHERE session_id = $1`, sessionID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var o model.Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}
	return &o, nil
}

// ListRecent returns the latest results, newest first.
func (r *ResultRepository) ListRecent(ctx context.Context, limit int, flaggedOnly bool) ([]ResultSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, title, reason, submitted_at, total_marks, max_marks,
		        percentage, tab_switches, flagged
		 FROM exam_results
		 WHERE ($2 = FALSE OR flagged)
		 ORDER BY submitted_at DESC
		 LIMIT $1`, limit, flaggedOnly,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultSummary
	for rows.Next() {
		var s ResultSummary
		if err := rows.Scan(&s.SessionID, &s.Title, &s.Reason, &s.SubmittedAt, &s.TotalMarks,
			&s.MaxMarks, &s.Percentage, &s.TabSwitches, &s.Flagged); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
