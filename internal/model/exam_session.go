package model

import (
	"time"

	"github.com/google/uuid"
)

// Phase enumerates the lifecycle of an exam session.
type Phase string

const (
	PhaseSetup      Phase = "SETUP"
	PhaseInProgress Phase = "IN_PROGRESS"
	PhaseSubmitted  Phase = "SUBMITTED"
)

// SubmitReason records what triggered the submission.
type SubmitReason string

const (
	SubmitManual      SubmitReason = "MANUAL"
	SubmitTimeExpired SubmitReason = "TIME_EXPIRED"
)

// Outcome is what a submitted session hands to the results collaborator:
// the score plus the frozen answers for review-mode rendering.
type Outcome struct {
	SessionID   uuid.UUID        `json:"session_id" yaml:"session_id"`
	Title       string           `json:"title" yaml:"title"`
	Reason      SubmitReason     `json:"reason" yaml:"reason"`
	StartedAt   time.Time        `json:"started_at" yaml:"started_at"`
	SubmittedAt time.Time        `json:"submitted_at" yaml:"submitted_at"`
	Result      ResultSet        `json:"result" yaml:"result"`
	Answers     AnswerRecord     `json:"answers" yaml:"answers"`
	Review      []QuestionReview `json:"review" yaml:"review"`
	Integrity   IntegritySummary `json:"integrity" yaml:"integrity"`
}

// StartSessionRequest is the payload for starting a session over HTTP.
type StartSessionRequest struct {
	QuestionSet     QuestionSet `json:"question_set" yaml:"question_set"`
	DurationSeconds int         `json:"duration_seconds" yaml:"duration_seconds" binding:"omitempty,min=1,max=36000"`
}

// NavigateRequest moves the current question.
type NavigateRequest struct {
	Index *int `json:"index" yaml:"index" binding:"required"`
}

// AnswerRequest selects an option for a question.
type AnswerRequest struct {
	Index  *int   `json:"index" yaml:"index" binding:"required"`
	Option string `json:"option" yaml:"option" binding:"required,max=10"`
}

// IntegritySignalRequest reports an environment signal observed by the page.
type IntegritySignalRequest struct {
	Kind IntegrityKind `json:"kind" yaml:"kind" binding:"required,oneof=TAB_SWITCH WINDOW_BLUR FULLSCREEN_EXIT"`
}

// JumpRequest moves to the first question of a subject.
type JumpRequest struct {
	Subject string `json:"subject" yaml:"subject" binding:"required,max=100"`
}
