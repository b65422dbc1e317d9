package model

import "time"

// IntegrityKind enumerates the environment signals watched during an exam.
type IntegrityKind string

const (
	IntegrityTabSwitch      IntegrityKind = "TAB_SWITCH"
	IntegrityWindowBlur     IntegrityKind = "WINDOW_BLUR"
	IntegrityFullscreenExit IntegrityKind = "FULLSCREEN_EXIT"
)

// Valid reports whether k is a known signal kind.
func (k IntegrityKind) Valid() bool {
	switch k {
	case IntegrityTabSwitch, IntegrityWindowBlur, IntegrityFullscreenExit:
		return true
	}
	return false
}

// IntegrityEvent is a single observed signal. Purely observational.
type IntegrityEvent struct {
	Kind IntegrityKind `json:"kind" yaml:"kind"`
	At   time.Time     `json:"at" yaml:"at"`
}

// Severity grades an integrity warning.
type Severity string

const (
	SeverityWarning Severity = "WARNING"
	SeverityFlagged Severity = "FLAGGED"
)

// Warning is the human-readable notice raised for an integrity event.
type Warning struct {
	Kind     IntegrityKind `json:"kind" yaml:"kind"`
	Severity Severity      `json:"severity" yaml:"severity"`
	Message  string        `json:"message" yaml:"message"`
	Count    int           `json:"count" yaml:"count"`
	At       time.Time     `json:"at" yaml:"at"`
}

// IntegritySummary is the frozen integrity state attached to an outcome.
type IntegritySummary struct {
	TabSwitches int              `json:"tab_switches" yaml:"tab_switches"`
	Flagged     bool             `json:"flagged" yaml:"flagged"`
	Events      []IntegrityEvent `json:"events" yaml:"events"`
}
