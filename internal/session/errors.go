package session

import (
	"errors"

	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/navigator"
)

var (
	// ErrInvalidStateTransition is returned by Start outside SETUP.
	ErrInvalidStateTransition = errors.New("invalid session state transition")

	// ErrSessionNotActive is returned by mutations outside IN_PROGRESS.
	ErrSessionNotActive = errors.New("session is not in progress")

	// ErrInvalidDuration is returned for a zero or negative duration.
	ErrInvalidDuration = errors.New("exam duration must be positive")

	ErrEmptyQuestionSet   = model.ErrEmptyQuestionSet
	ErrInvalidQuestionSet = model.ErrInvalidQuestionSet
	ErrIndexOutOfRange    = navigator.ErrIndexOutOfRange
	ErrInvalidOption      = navigator.ErrInvalidOption
	ErrUnknownSubject     = navigator.ErrUnknownSubject
)

// IsFatal reports whether err prevents a session from starting.
func IsFatal(err error) bool {
	return errors.Is(err, ErrEmptyQuestionSet) ||
		errors.Is(err, ErrInvalidQuestionSet) ||
		errors.Is(err, ErrInvalidDuration)
}
