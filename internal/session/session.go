// Package session is the exam state machine. A Session owns the navigator,
// the countdown and the integrity monitor of one attempt and moves through
// SETUP, IN_PROGRESS and SUBMITTED exactly once.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/integrity"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/navigator"
	"github.com/stemsi/exstem-engine/internal/scoring"
	"github.com/stemsi/exstem-engine/internal/timer"
	"github.com/stemsi/exstem-engine/internal/validator"
)

// sinkTimeout bounds the result hand-off on timer-forced submission, where
// no caller context exists.
const sinkTimeout = 5 * time.Second

// Options are the injected collaborators of a session. Zero values fall
// back to production defaults.
type Options struct {
	ID                 uuid.UUID
	Clock              timer.TickSource
	Signals            integrity.SignalSource
	Fullscreen         integrity.FullscreenController
	Sink               ResultSink
	Scheme             scoring.Scheme
	TabSwitchThreshold int
	Now                func() time.Time
}

// Snapshot is the read model rendered by the exam page.
type Snapshot struct {
	ID          uuid.UUID              `json:"id"`
	Phase       model.Phase            `json:"phase"`
	Title       string                 `json:"title"`
	Current     int                    `json:"current"`
	Statuses    []model.QuestionStatus `json:"statuses"`
	Summary     model.StatusSummary    `json:"summary"`
	Answers     model.AnswerRecord     `json:"answers"`
	Timer       timer.Snapshot         `json:"timer"`
	Remaining   string                 `json:"remaining"`
	Fullscreen  bool                   `json:"fullscreen"`
	TabSwitches int                    `json:"tab_switches"`
	Flagged     bool                   `json:"flagged"`
	Warnings    []model.Warning        `json:"warnings"`
}

// Session is one proctored exam attempt. All methods are safe for
// concurrent use.
type Session struct {
	id   uuid.UUID
	opts Options

	mu         sync.Mutex
	phase      model.Phase
	set        *model.QuestionSet
	nav        *navigator.Navigator
	timer      *timer.Timer
	monitor    *integrity.Monitor
	startedAt  time.Time
	fullscreen bool

	// submitted is the single check-and-set guard of the submit
	// transition. Whoever swaps it first owns the submission.
	submitted atomic.Bool
	outcome   *model.Outcome
	done      chan struct{}

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int

	log zerolog.Logger
}

// New creates a session in SETUP.
func New(opts Options, log zerolog.Logger) *Session {
	if opts.ID == uuid.Nil {
		opts.ID = uuid.New()
	}
	if opts.Clock == nil {
		opts.Clock = timer.NewWallClock(time.Second)
	}
	if opts.Scheme == (scoring.Scheme{}) {
		opts.Scheme = scoring.DefaultScheme()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session{
		id:        opts.ID,
		opts:      opts,
		phase:     model.PhaseSetup,
		done:      make(chan struct{}),
		listeners: make(map[int]Listener),
		log: log.With().
			Str("component", "exam_session").
			Str("session_id", opts.ID.String()).
			Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Phase returns the lifecycle phase.
func (s *Session) Phase() model.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Done is closed once the session is submitted.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start freezes a deep copy of the question set, assigning positional
// indices when none were given, validates it and the duration, then starts
// navigation, monitoring and the countdown. Fatal input errors abort before
// any state changes. Later changes to set do not reach the session.
func (s *Session) Start(set *model.QuestionSet, durationSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseSetup {
		return fmt.Errorf("%w: start from %s", ErrInvalidStateTransition, s.phase)
	}
	if set.Len() == 0 {
		return ErrEmptyQuestionSet
	}
	if durationSeconds <= 0 {
		return fmt.Errorf("%w: %d seconds", ErrInvalidDuration, durationSeconds)
	}

	frozen := set.Clone()
	frozen.Normalize()
	if fields := validator.Struct(frozen); fields != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestionSet, fields)
	}
	if err := frozen.Validate(); err != nil {
		return err
	}

	s.set = frozen
	s.nav = navigator.New(s.set)
	s.timer = timer.New(s.opts.Clock, timer.Hooks{
		OnTick:   s.onTick,
		OnExpire: s.onExpire,
	}, s.log)
	s.monitor = integrity.NewMonitor(s.opts.Signals, s.opts.Fullscreen, integrity.Config{
		TabSwitchThreshold: s.opts.TabSwitchThreshold,
		Active:             s.timer.Running,
		OnEvent:            s.onIntegrityEvent,
		OnWarning:          s.onWarning,
		Now:                s.opts.Now,
	}, s.log)

	s.fullscreen = s.requestFullscreen()
	s.startedAt = s.opts.Now()
	s.phase = model.PhaseInProgress

	subs := s.monitor.Start()
	if err := s.timer.Start(durationSeconds); err != nil {
		// Unreachable after the duration check; keep the session consistent anyway.
		s.monitor.Stop()
		s.phase = model.PhaseSetup
		return fmt.Errorf("start timer: %w", err)
	}

	s.log.Info().
		Str("title", s.set.Title).
		Int("questions", s.set.Len()).
		Int("duration_seconds", durationSeconds).
		Int("signal_subscriptions", subs).
		Bool("fullscreen", s.fullscreen).
		Msg("Exam session started")

	return nil
}

func (s *Session) requestFullscreen() bool {
	if s.opts.Fullscreen == nil {
		return false
	}
	if err := s.opts.Fullscreen.RequestFullscreen(); err != nil {
		s.log.Warn().Err(err).Msg("Fullscreen refused, continuing windowed")
		return false
	}
	return true
}

// mutate runs fn under the session lock if the session is in progress.
// Once the submit flag is swapped, mutations are rejected even if the
// submission has not finished yet.
func (s *Session) mutate(op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseInProgress || s.submitted.Load() {
		s.log.Debug().Str("op", op).Str("phase", string(s.phase)).Msg("Ignoring mutation on inactive session")
		return ErrSessionNotActive
	}
	return fn()
}

// Navigate makes index the current question.
func (s *Session) Navigate(index int) error {
	return s.mutate("navigate", func() error { return s.nav.Visit(index) })
}

// Next moves to the following question.
func (s *Session) Next() error {
	return s.mutate("next", func() error { return s.nav.Next() })
}

// Previous moves to the preceding question.
func (s *Session) Previous() error {
	return s.mutate("previous", func() error { return s.nav.Previous() })
}

// JumpToSubject moves to the first question of a subject block.
func (s *Session) JumpToSubject(subject string) error {
	return s.mutate("jump_to_subject", func() error { return s.nav.JumpToSubject(subject) })
}

// SelectOption records an answer.
func (s *Session) SelectOption(index int, key string) error {
	return s.mutate("select_option", func() error { return s.nav.SelectOption(index, key) })
}

// ClearResponse removes an answer.
func (s *Session) ClearResponse(index int) error {
	return s.mutate("clear_response", func() error { return s.nav.Clear(index) })
}

// MarkForReview flags a question for review.
func (s *Session) MarkForReview(index int) error {
	return s.mutate("mark_for_review", func() error { return s.nav.MarkForReview(index) })
}

// Unmark removes the review flag.
func (s *Session) Unmark(index int) error {
	return s.mutate("unmark", func() error { return s.nav.Unmark(index) })
}

// Submit ends the session on the candidate's confirmation. It is
// idempotent: later calls, including one racing timer expiry, return the
// outcome produced by the first.
func (s *Session) Submit(ctx context.Context) (*model.Outcome, error) {
	return s.submit(ctx, model.SubmitManual)
}

func (s *Session) submit(ctx context.Context, reason model.SubmitReason) (*model.Outcome, error) {
	if s.Phase() == model.PhaseSetup {
		return nil, ErrSessionNotActive
	}

	if !s.submitted.CompareAndSwap(false, true) {
		<-s.done
		s.log.Debug().Str("reason", string(reason)).Msg("Duplicate submit ignored")
		return s.outcome, nil
	}

	s.mu.Lock()
	s.timer.Stop()
	s.monitor.Stop()

	answers := s.nav.Answers()
	outcome := &model.Outcome{
		SessionID:   s.id,
		Title:       s.set.Title,
		Reason:      reason,
		StartedAt:   s.startedAt,
		SubmittedAt: s.opts.Now(),
		Result:      scoring.Score(s.set, answers, s.opts.Scheme),
		Answers:     answers,
		Review:      scoring.Review(s.set, answers, s.opts.Scheme),
		Integrity:   s.monitor.Summary(),
	}
	s.outcome = outcome
	s.phase = model.PhaseSubmitted
	remaining := s.timer.Remaining()
	s.mu.Unlock()

	close(s.done)

	s.log.Info().
		Str("reason", string(reason)).
		Int("remaining_seconds", remaining).
		Int("correct", outcome.Result.CorrectCount).
		Int("incorrect", outcome.Result.IncorrectCount).
		Float64("total_marks", outcome.Result.TotalMarks).
		Float64("percentage", outcome.Result.Percentage).
		Bool("flagged", outcome.Integrity.Flagged).
		Msg("Exam submitted and graded")

	if s.opts.Sink != nil {
		if err := s.opts.Sink.Publish(ctx, outcome); err != nil {
			s.log.Error().Err(err).Msg("Result hand-off failed")
		}
	}

	for _, l := range s.snapshotListeners() {
		l.OnSubmitted(outcome)
	}

	return outcome, nil
}

func (s *Session) onExpire() {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	s.log.Info().Msg("Time is up, forcing submission")
	if _, err := s.submit(ctx, model.SubmitTimeExpired); err != nil {
		s.log.Error().Err(err).Msg("Forced submission failed")
	}
}

func (s *Session) onTick(remaining int) {
	for _, l := range s.snapshotListeners() {
		l.OnTick(remaining)
	}
}

func (s *Session) onWarning(w model.Warning) {
	for _, l := range s.snapshotListeners() {
		l.OnWarning(w)
	}
}

func (s *Session) onIntegrityEvent(ev model.IntegrityEvent) {
	for _, l := range s.snapshotListeners() {
		l.OnIntegrityEvent(ev)
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Session) Subscribe(l Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = l

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) snapshotListeners() []Listener {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

// Outcome returns the submitted outcome, if any.
func (s *Session) Outcome() (*model.Outcome, bool) {
	select {
	case <-s.done:
		return s.outcome, true
	default:
		return nil, false
	}
}

// Paper returns the candidate-facing question paper. Nil before Start.
func (s *Session) Paper() *model.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		return nil
	}
	p := s.set.Paper()
	return &p
}

// Snapshot returns the current read model.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		Phase:      s.phase,
		Current:    -1,
		Fullscreen: s.fullscreen,
		Timer:      timer.Snapshot{State: timer.StateStopped},
		Remaining:  timer.Format(0),
	}
	if s.set == nil {
		return snap
	}

	snap.Title = s.set.Title
	snap.Current = s.nav.Current()
	snap.Statuses = s.nav.Statuses()
	snap.Summary = s.nav.Summary()
	snap.Answers = s.nav.Answers()
	snap.Timer = s.timer.Snapshot()
	snap.Remaining = timer.Format(snap.Timer.RemainingSeconds)
	snap.TabSwitches = s.monitor.TabSwitches()
	snap.Flagged = s.monitor.Flagged()
	snap.Warnings = s.monitor.Warnings()
	return snap
}
