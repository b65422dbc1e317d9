// Package integrity raises advisory warnings for environment signals that
// suggest exam misconduct. It never touches answers or navigation and never
// ends a session.
package integrity

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/model"
)

// DefaultTabSwitchThreshold is used when Config.TabSwitchThreshold is not
// positive.
const DefaultTabSwitchThreshold = 3

var watchedKinds = []model.IntegrityKind{
	model.IntegrityTabSwitch,
	model.IntegrityWindowBlur,
	model.IntegrityFullscreenExit,
}

// Config wires the monitor into its owner.
type Config struct {
	TabSwitchThreshold int
	// Active reports whether the exam countdown is running. Signals
	// observed while it returns false are dropped.
	Active func() bool
	// OnEvent and OnWarning are called outside the monitor's lock.
	OnEvent   func(model.IntegrityEvent)
	OnWarning func(model.Warning)
	Now       func() time.Time
}

// Monitor counts tab switches and turns every watched signal into a
// warning.
type Monitor struct {
	mu         sync.Mutex
	source     SignalSource
	fullscreen FullscreenController
	cfg        Config

	tabSwitches int
	flagged     bool
	events      []model.IntegrityEvent
	warnings    []model.Warning
	unsubs      []func()
	started     bool
	stopped     bool

	log zerolog.Logger
}

// NewMonitor creates a monitor. source and fullscreen may be nil, in which
// case monitoring (or fullscreen re-entry) degrades to a no-op.
func NewMonitor(source SignalSource, fullscreen FullscreenController, cfg Config, log zerolog.Logger) *Monitor {
	if cfg.TabSwitchThreshold <= 0 {
		cfg.TabSwitchThreshold = DefaultTabSwitchThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Monitor{
		source:     source,
		fullscreen: fullscreen,
		cfg:        cfg,
		log:        log.With().Str("component", "integrity_monitor").Logger(),
	}
}

// Start subscribes to every watched signal. A failed subscription is logged
// and that signal is simply not monitored. Returns the number of live
// subscriptions.
func (m *Monitor) Start() int {
	m.mu.Lock()
	if m.started {
		n := len(m.unsubs)
		m.mu.Unlock()
		return n
	}
	m.started = true
	m.mu.Unlock()

	if m.source == nil {
		m.log.Warn().Msg("No signal source, integrity monitoring disabled")
		return 0
	}

	unsubs := make([]func(), 0, len(watchedKinds))
	for _, kind := range watchedKinds {
		unsub, err := m.source.Subscribe(kind, m.handle)
		if err != nil {
			m.log.Warn().Err(err).Str("kind", string(kind)).Msg("Signal subscription failed, continuing without it")
			continue
		}
		unsubs = append(unsubs, unsub)
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		for _, u := range unsubs {
			u()
		}
		return 0
	}
	m.unsubs = unsubs
	m.mu.Unlock()

	return len(unsubs)
}

// Stop tears down every subscription exactly once. Signals arriving after
// Stop are ignored.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	unsubs := m.unsubs
	m.unsubs = nil
	m.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func (m *Monitor) handle(ev model.IntegrityEvent) {
	if m.cfg.Active != nil && !m.cfg.Active() {
		return
	}
	if ev.At.IsZero() {
		ev.At = m.cfg.Now()
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}

	var raised []model.Warning
	reenter := false

	switch ev.Kind {
	case model.IntegrityTabSwitch:
		m.tabSwitches++
		raised = append(raised, model.Warning{
			Kind:     ev.Kind,
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("Anda berpindah tab atau meninggalkan halaman ujian (%d kali). Tetap di halaman ujian.", m.tabSwitches),
			Count:    m.tabSwitches,
			At:       ev.At,
		})
		if !m.flagged && m.tabSwitches >= m.cfg.TabSwitchThreshold {
			m.flagged = true
			raised = append(raised, model.Warning{
				Kind:     ev.Kind,
				Severity: model.SeverityFlagged,
				Message:  fmt.Sprintf("Ujian Anda ditandai untuk ditinjau karena berpindah tab %d kali.", m.tabSwitches),
				Count:    m.tabSwitches,
				At:       ev.At,
			})
		}
	case model.IntegrityWindowBlur:
		raised = append(raised, model.Warning{
			Kind:     ev.Kind,
			Severity: model.SeverityWarning,
			Message:  "Jendela ujian kehilangan fokus. Kembali ke halaman ujian.",
			At:       ev.At,
		})
	case model.IntegrityFullscreenExit:
		reenter = true
		raised = append(raised, model.Warning{
			Kind:     ev.Kind,
			Severity: model.SeverityWarning,
			Message:  "Anda keluar dari mode layar penuh. Ujian akan kembali ke layar penuh.",
			At:       ev.At,
		})
	default:
		m.mu.Unlock()
		m.log.Warn().Str("kind", string(ev.Kind)).Msg("Ignoring unknown signal")
		return
	}

	m.events = append(m.events, ev)
	m.warnings = append(m.warnings, raised...)
	count := m.tabSwitches
	m.mu.Unlock()

	m.log.Warn().
		Str("kind", string(ev.Kind)).
		Int("tab_switches", count).
		Msg("Integrity event")

	if m.cfg.OnEvent != nil {
		m.cfg.OnEvent(ev)
	}
	for _, w := range raised {
		if w.Severity == model.SeverityFlagged {
			m.log.Warn().Int("tab_switches", w.Count).Msg("Session flagged for review")
		}
		if m.cfg.OnWarning != nil {
			m.cfg.OnWarning(w)
		}
	}

	if reenter {
		m.requestFullscreen()
	}
}

func (m *Monitor) requestFullscreen() {
	if m.fullscreen == nil {
		return
	}
	if err := m.fullscreen.RequestFullscreen(); err != nil {
		m.log.Warn().Err(err).Msg("Fullscreen re-entry failed, continuing windowed")
	}
}

// TabSwitches returns the tab-switch counter.
func (m *Monitor) TabSwitches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tabSwitches
}

// Flagged reports whether the escalation threshold was reached.
func (m *Monitor) Flagged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flagged
}

// Warnings returns a copy of every warning raised so far.
func (m *Monitor) Warnings() []model.Warning {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Warning, len(m.warnings))
	copy(out, m.warnings)
	return out
}

// Summary returns the counter, flag and event log.
func (m *Monitor) Summary() model.IntegritySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]model.IntegrityEvent, len(m.events))
	copy(events, m.events)
	return model.IntegritySummary{
		TabSwitches: m.tabSwitches,
		Flagged:     m.flagged,
		Events:      events,
	}
}
