package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/integrity"
	"github.com/stemsi/exstem-engine/internal/loader"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/scoring"
	"github.com/stemsi/exstem-engine/internal/session"
	"github.com/stemsi/exstem-engine/internal/timer"
	ws "github.com/stemsi/exstem-engine/internal/websocket"
)

var (
	// ErrSessionNotFound is returned for an unknown or evicted session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrResultPending is returned when a session exists but is not
	// submitted yet.
	ErrResultPending = errors.New("session not submitted yet")
)

// IntegrityPublisher forwards integrity warnings to proctoring.
type IntegrityPublisher interface {
	PublishWarning(ctx context.Context, sessionID uuid.UUID, w model.Warning) error
}

// ResultReader looks up an outcome that is no longer held in memory.
type ResultReader interface {
	GetOutcome(ctx context.Context, sessionID uuid.UUID) (*model.Outcome, error)
}

// ResultReaderFunc adapts a function to ResultReader.
type ResultReaderFunc func(ctx context.Context, sessionID uuid.UUID) (*model.Outcome, error)

func (f ResultReaderFunc) GetOutcome(ctx context.Context, sessionID uuid.UUID) (*model.Outcome, error) {
	return f(ctx, sessionID)
}

// Entry is a hosted session together with its transport adapters.
type Entry struct {
	Session    *session.Session
	Signals    *integrity.Bus
	Fullscreen *ws.FullscreenRelay
	CreatedAt  time.Time
}

// SessionDeps are the optional collaborators of SessionService.
type SessionDeps struct {
	Sink      session.ResultSink
	Integrity IntegrityPublisher
	// Readers are consulted in order once a session has been evicted.
	Readers []ResultReader
	// NewClock overrides the wall clock, mainly for tests.
	NewClock func() timer.TickSource
	Now      func() time.Time
}

// SessionService hosts independent exam sessions keyed by ID and evicts
// submitted ones after the retention period.
type SessionService struct {
	cfg  config.ExamConfig
	deps SessionDeps

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Entry

	log zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(cfg config.ExamConfig, deps SessionDeps, log zerolog.Logger) *SessionService {
	if deps.NewClock == nil {
		interval := cfg.TickInterval
		if interval <= 0 {
			interval = time.Second
		}
		deps.NewClock = func() timer.TickSource { return timer.NewWallClock(interval) }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &SessionService{
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[uuid.UUID]*Entry),
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// Scheme returns the configured marking scheme.
func (s *SessionService) Scheme() scoring.Scheme {
	return scoring.Scheme{Correct: s.cfg.MarksCorrect, Incorrect: s.cfg.MarksIncorrect}
}

// ResolveDuration picks the session duration in seconds: the explicit
// request value, then the question set's own duration, then the configured
// default.
func (s *SessionService) ResolveDuration(set *model.QuestionSet, requested int) int {
	if requested > 0 {
		return requested
	}
	if d := set.DurationSeconds(); d > 0 {
		return d
	}
	return s.cfg.DefaultDurationMinutes * 60
}

// Start validates the question set, creates a session and starts it.
func (s *SessionService) Start(ctx context.Context, req *model.StartSessionRequest) (*Entry, error) {
	set := req.QuestionSet
	if err := loader.Prepare(&set); err != nil {
		return nil, err
	}

	entry := &Entry{
		Signals:    integrity.NewBus(),
		Fullscreen: ws.NewFullscreenRelay(),
		CreatedAt:  s.deps.Now(),
	}
	entry.Session = session.New(session.Options{
		Clock:              s.deps.NewClock(),
		Signals:            entry.Signals,
		Fullscreen:         entry.Fullscreen,
		Sink:               s.deps.Sink,
		Scheme:             s.Scheme(),
		TabSwitchThreshold: s.cfg.TabSwitchThreshold,
		Now:                s.deps.Now,
	}, s.log)

	if s.deps.Integrity != nil {
		id := entry.Session.ID()
		entry.Session.Subscribe(session.ListenerFuncs{
			Warning: func(w model.Warning) { s.publishWarning(id, w) },
		})
	}

	if err := entry.Session.Start(&set, s.ResolveDuration(&set, req.DurationSeconds)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[entry.Session.ID()] = entry
	s.mu.Unlock()

	return entry, nil
}

func (s *SessionService) publishWarning(id uuid.UUID, w model.Warning) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.deps.Integrity.PublishWarning(ctx, id, w); err != nil {
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Integrity publish failed")
	}
}

// Get returns a hosted session.
func (s *SessionService) Get(id uuid.UUID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// Signal feeds an environment signal reported by the exam page into the
// session's integrity monitor. Returns the number of handlers reached;
// zero means the monitor is no longer listening.
func (s *SessionService) Signal(id uuid.UUID, kind model.IntegrityKind) (int, error) {
	e, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	return e.Signals.Emit(model.IntegrityEvent{Kind: kind, At: s.deps.Now()})
}

// Result returns the outcome of a session, falling back to the configured
// readers once the session has been evicted from memory.
func (s *SessionService) Result(ctx context.Context, id uuid.UUID) (*model.Outcome, error) {
	if e, err := s.Get(id); err == nil {
		if out, ok := e.Session.Outcome(); ok {
			return out, nil
		}
		return nil, ErrResultPending
	}

	for _, r := range s.deps.Readers {
		out, err := r.GetOutcome(ctx, id)
		if err == nil && out != nil {
			return out, nil
		}
		if err != nil {
			s.log.Debug().Err(err).Str("session_id", id.String()).Msg("Result reader miss")
		}
	}
	return nil, ErrSessionNotFound
}

// Count returns the number of hosted sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions submitted longer ago than the retention period.
// It returns the number of evicted sessions.
func (s *SessionService) Sweep(now time.Time) int {
	retention := s.cfg.SessionRetention

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.sessions {
		out, ok := e.Session.Outcome()
		if !ok {
			continue
		}
		if now.Sub(out.SubmittedAt) >= retention {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.log.Info().Int("evicted", evicted).Int("remaining", len(s.sessions)).Msg("Swept submitted sessions")
	}
	return evicted
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
