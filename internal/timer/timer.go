// Package timer implements the exam countdown: a whole-second timer driven
// by an injected tick source, firing its expiry callback exactly once.
package timer

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// State enumerates the timer lifecycle.
type State string

const (
	StateStopped State = "STOPPED"
	StateRunning State = "RUNNING"
	StateExpired State = "EXPIRED"
)

var (
	// ErrInvalidDuration is returned for a zero or negative duration.
	ErrInvalidDuration = errors.New("timer duration must be positive")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("timer already started")
)

// TickSource delivers one tick per timer second until the returned stop
// function is called. Stop must be safe to call more than once and from
// inside tick.
type TickSource interface {
	Run(tick func()) (stop func())
}

// Snapshot is the observable timer state.
type Snapshot struct {
	RemainingSeconds int   `json:"remaining_seconds"`
	State            State `json:"state"`
}

// Hooks are invoked outside the timer's lock, so they may call back into
// the timer (or into a session that stops it).
type Hooks struct {
	OnTick   func(remaining int)
	OnExpire func()
}

// Timer is a monotonic countdown. RemainingSeconds never increases.
type Timer struct {
	mu         sync.Mutex
	source     TickSource
	hooks      Hooks
	state      State
	remaining  int
	started    bool
	stopSource func()
	log        zerolog.Logger
}

// New creates a stopped timer.
func New(source TickSource, hooks Hooks, log zerolog.Logger) *Timer {
	return &Timer{
		source: source,
		hooks:  hooks,
		state:  StateStopped,
		log:    log.With().Str("component", "timer").Logger(),
	}
}

// Start moves the timer from STOPPED to RUNNING with the given number of
// seconds. A timer can only be started once.
func (t *Timer) Start(seconds int) error {
	if seconds <= 0 {
		return ErrInvalidDuration
	}

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.started = true
	t.state = StateRunning
	t.remaining = seconds
	t.mu.Unlock()

	stop := t.source.Run(t.tick)

	t.mu.Lock()
	if t.state != StateRunning {
		// Stopped or expired before the source handed back its stop func.
		t.mu.Unlock()
		stop()
		return nil
	}
	t.stopSource = stop
	t.mu.Unlock()

	t.log.Debug().Int("seconds", seconds).Msg("Timer started")
	return nil
}

func (t *Timer) tick() {
	t.mu.Lock()
	if t.state != StateRunning {
		t.mu.Unlock()
		return
	}

	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining

	expired := remaining <= 0
	var stop func()
	if expired {
		t.state = StateExpired
		stop = t.stopSource
		t.stopSource = nil
	}
	t.mu.Unlock()

	if t.hooks.OnTick != nil {
		t.hooks.OnTick(remaining)
	}

	if !expired {
		return
	}
	if stop != nil {
		stop()
	}
	t.log.Info().Msg("Timer expired")
	if t.hooks.OnExpire != nil {
		t.hooks.OnExpire()
	}
}

// Stop freezes a running timer. Stopping a timer that is not running is a
// no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	if t.state != StateRunning {
		t.mu.Unlock()
		return
	}
	t.state = StateStopped
	stop := t.stopSource
	t.stopSource = nil
	remaining := t.remaining
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	t.log.Debug().Int("remaining", remaining).Msg("Timer stopped")
}

// Remaining returns the remaining whole seconds.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// State returns the current lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Running reports whether the timer is counting down.
func (t *Timer) Running() bool {
	return t.State() == StateRunning
}

// Snapshot returns remaining seconds and state read under one lock.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{RemainingSeconds: t.remaining, State: t.state}
}
