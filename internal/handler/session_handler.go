package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/response"
	"github.com/stemsi/exstem-engine/internal/service"
	"github.com/stemsi/exstem-engine/internal/session"
	"github.com/stemsi/exstem-engine/internal/validator"
)

// SessionHandler exposes exam sessions over HTTP.
type SessionHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// StartSession godoc
// POST /api/v1/sessions
// Validates a question set and starts a timed session.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	entry, err := h.sessionService.Start(c.Request.Context(), &req)
	if err != nil {
		h.log.Warn().Err(err).Msg("Session start rejected")
		writeSessionError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session": entry.Session.Snapshot(),
		"paper":   entry.Session.Paper(),
	})
}

// GetSession godoc
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": entry.Session.Snapshot()})
}

// GetPaper godoc
// GET /api/v1/sessions/:id/paper
// Returns the questions without answer keys.
func (h *SessionHandler) GetPaper(c *gin.Context) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": entry.Session.Paper()})
}

// Navigate godoc
// POST /api/v1/sessions/:id/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.mutate(c, func(s *session.Session) error { return s.Navigate(*req.Index) })
}

// Next godoc
// POST /api/v1/sessions/:id/next
func (h *SessionHandler) Next(c *gin.Context) {
	h.mutate(c, func(s *session.Session) error { return s.Next() })
}

// Previous godoc
// POST /api/v1/sessions/:id/previous
func (h *SessionHandler) Previous(c *gin.Context) {
	h.mutate(c, func(s *session.Session) error { return s.Previous() })
}

// JumpToSubject godoc
// POST /api/v1/sessions/:id/jump
func (h *SessionHandler) JumpToSubject(c *gin.Context) {
	var req model.JumpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.mutate(c, func(s *session.Session) error { return s.JumpToSubject(req.Subject) })
}

// SelectOption godoc
// POST /api/v1/sessions/:id/answer
func (h *SessionHandler) SelectOption(c *gin.Context) {
	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.mutate(c, func(s *session.Session) error { return s.SelectOption(*req.Index, req.Option) })
}

// ClearResponse godoc
// DELETE /api/v1/sessions/:id/answer/:index
func (h *SessionHandler) ClearResponse(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	h.mutate(c, func(s *session.Session) error { return s.ClearResponse(index) })
}

// MarkForReview godoc
// POST /api/v1/sessions/:id/review/:index
func (h *SessionHandler) MarkForReview(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	h.mutate(c, func(s *session.Session) error { return s.MarkForReview(index) })
}

// Unmark godoc
// DELETE /api/v1/sessions/:id/review/:index
func (h *SessionHandler) Unmark(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	h.mutate(c, func(s *session.Session) error { return s.Unmark(index) })
}

// ReportSignal godoc
// POST /api/v1/sessions/:id/integrity
// Receives a tab-switch, blur or fullscreen-exit signal from the exam page.
func (h *SessionHandler) ReportSignal(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.IntegritySignalRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	delivered, err := h.sessionService.Signal(id, req.Kind)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	if delivered == 0 {
		response.Fail(c, http.StatusConflict, response.ErrMonitorNotListening)
		return
	}

	entry, err := h.sessionService.Get(id)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	snap := entry.Session.Snapshot()
	response.Success(c, http.StatusAccepted, gin.H{
		"tab_switches": snap.TabSwitches,
		"flagged":      snap.Flagged,
		"warnings":     snap.Warnings,
	})
}

// Submit godoc
// POST /api/v1/sessions/:id/submit
// Ends the session and returns the graded outcome. Repeated calls return
// the same outcome.
func (h *SessionHandler) Submit(c *gin.Context) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}

	outcome, err := entry.Session.Submit(c.Request.Context())
	if err != nil {
		writeSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"outcome": outcome})
}

// GetResult godoc
// GET /api/v1/sessions/:id/result
func (h *SessionHandler) GetResult(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	outcome, err := h.sessionService.Result(c.Request.Context(), id)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"outcome": outcome})
}

// ─── helpers ────────────────────────────────────────────────────────

func (h *SessionHandler) lookup(c *gin.Context) (*service.Entry, bool) {
	id, ok := parseSessionID(c)
	if !ok {
		return nil, false
	}
	entry, err := h.sessionService.Get(id)
	if err != nil {
		writeSessionError(c, err)
		return nil, false
	}
	return entry, true
}

// mutate applies fn and answers with the refreshed navigation state.
func (h *SessionHandler) mutate(c *gin.Context, fn func(s *session.Session) error) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := fn(entry.Session); err != nil {
		writeSessionError(c, err)
		return
	}
	snap := entry.Session.Snapshot()
	response.Success(c, http.StatusOK, gin.H{
		"current":  snap.Current,
		"statuses": snap.Statuses,
		"summary":  snap.Summary,
	})
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func parseIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"index": "index must be an integer"})
		return 0, false
	}
	return index, true
}

// errorCode maps engine errors to the API error table.
func errorCode(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrResultPending):
		return http.StatusConflict, response.ErrResultPending
	case errors.Is(err, session.ErrEmptyQuestionSet):
		return http.StatusUnprocessableEntity, response.ErrEmptyQuestionSet
	case errors.Is(err, session.ErrInvalidQuestionSet):
		return http.StatusUnprocessableEntity, response.ErrInvalidQuestionSet
	case errors.Is(err, session.ErrInvalidDuration):
		return http.StatusUnprocessableEntity, response.ErrInvalidDuration
	case errors.Is(err, session.ErrInvalidStateTransition):
		return http.StatusConflict, response.ErrInvalidTransition
	case errors.Is(err, session.ErrSessionNotActive):
		return http.StatusConflict, response.ErrSessionNotActive
	case errors.Is(err, session.ErrIndexOutOfRange):
		return http.StatusBadRequest, response.ErrIndexOutOfRange
	case errors.Is(err, session.ErrInvalidOption):
		return http.StatusBadRequest, response.ErrInvalidOption
	case errors.Is(err, session.ErrUnknownSubject):
		return http.StatusBadRequest, response.ErrUnknownSubject
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

func writeSessionError(c *gin.Context, err error) {
	status, code := errorCode(err)
	if code == response.ErrInvalidQuestionSet {
		response.FailWithFields(c, status, code, map[string]string{"detail": err.Error()})
		return
	}
	response.Fail(c, status, code)
}
