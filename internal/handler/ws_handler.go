package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/response"
	"github.com/stemsi/exstem-engine/internal/service"
	"github.com/stemsi/exstem-engine/internal/session"
	"github.com/stemsi/exstem-engine/internal/timer"
	ws "github.com/stemsi/exstem-engine/internal/websocket"
)

const outboxFlushWait = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a session to the exam page and takes the page's
// actions and environment signals.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream
// Pushes tick, warning, fullscreen and submitted events. Accepts signal,
// navigation, answer, submit and ping actions.
func (h *WSHandler) SessionStream(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	entry, err := h.sessionService.Get(id)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	if entry.Session.Phase() != model.PhaseInProgress {
		response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", id.String()).Logger()

	// Pushes driven by the session clock go through the outbox so a slow
	// page never holds up the countdown or the forced submission.
	outbox := ws.NewOutbox(conn, ws.DefaultOutboxSize)
	go outbox.Run()
	defer func() {
		// Let the submitted event reach the page before giving up on it.
		if entry.Session.Phase() == model.PhaseSubmitted {
			select {
			case <-outbox.Done():
			case <-time.After(outboxFlushWait):
			}
		}
		outbox.Stop()
	}()

	unsubscribe := entry.Session.Subscribe(session.ListenerFuncs{
		Tick: func(remaining int) {
			outbox.Send(ws.TickResponse{Event: ws.EventTick, Remaining: remaining, Formatted: timer.Format(remaining)})
		},
		Warning: func(w model.Warning) {
			if !outbox.Send(ws.WarningResponse{Event: ws.EventWarning, Warning: w}) {
				wsLog.Warn().Str("kind", string(w.Kind)).Msg("Outbox full, warning dropped")
			}
		},
		// The outbox closes the connection after this event, which ends the
		// read loop below, including when the timer forces the submission.
		Submitted: func(o *model.Outcome) {
			outbox.Finish(ws.SubmittedResponse{Event: ws.EventSubmitted, Reason: o.Reason, Result: o.Result})
		},
	})
	defer unsubscribe()

	detach, err := entry.Fullscreen.Attach(func() error {
		return conn.WriteTyped(ws.FullscreenResponse{Event: ws.EventFullscreen})
	})
	if err != nil {
		wsLog.Warn().Err(err).Msg("Held fullscreen request could not be delivered")
	}
	defer detach()

	wsLog.Info().Msg("Exam page connected")

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if done := h.dispatch(conn, wsLog, entry, &msg); done {
			return
		}
	}
}

// dispatch handles one client message. It returns true once the session is
// over and the stream should close.
func (h *WSHandler) dispatch(conn *ws.Conn, wsLog zerolog.Logger, entry *service.Entry, msg *ws.RequestPayload) bool {
	s := entry.Session

	switch msg.Action {
	case ws.ActionPing:
		_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		return false

	case ws.ActionSignal:
		if !msg.Kind.Valid() {
			_ = conn.WriteError(string(response.ErrValidation), "unknown signal kind: "+string(msg.Kind))
			return false
		}
		if _, err := entry.Signals.Emit(model.IntegrityEvent{Kind: msg.Kind}); err != nil {
			wsLog.Warn().Err(err).Msg("Signal emit failed")
		}
		return false

	case ws.ActionSubmit:
		if _, err := s.Submit(context.Background()); err != nil {
			h.writeError(conn, err)
			return false
		}
		// The Submitted listener has already pushed the result.
		return true
	}

	var err error
	switch msg.Action {
	case ws.ActionNavigate:
		if msg.Index == nil {
			_ = conn.WriteError(string(response.ErrValidation), "index is required")
			return false
		}
		err = s.Navigate(*msg.Index)
	case ws.ActionAnswer:
		if msg.Index == nil || msg.Option == "" {
			_ = conn.WriteError(string(response.ErrValidation), "index and option are required")
			return false
		}
		err = s.SelectOption(*msg.Index, msg.Option)
	case ws.ActionClear, ws.ActionMark, ws.ActionUnmark:
		if msg.Index == nil {
			_ = conn.WriteError(string(response.ErrValidation), "index is required")
			return false
		}
		switch msg.Action {
		case ws.ActionClear:
			err = s.ClearResponse(*msg.Index)
		case ws.ActionMark:
			err = s.MarkForReview(*msg.Index)
		default:
			err = s.Unmark(*msg.Index)
		}
	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		_ = conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		return false
	}

	if err != nil {
		h.writeError(conn, err)
		return s.Phase() == model.PhaseSubmitted
	}

	snap := s.Snapshot()
	_ = conn.WriteTyped(ws.AckResponse{
		Event:    ws.EventAck,
		Action:   msg.Action,
		Current:  snap.Current,
		Statuses: snap.Statuses,
		Summary:  snap.Summary,
	})
	return false
}

func (h *WSHandler) writeError(conn *ws.Conn, err error) {
	_, code := errorCode(err)
	_ = conn.WriteError(string(code), response.GetMessage(code))
}
