package session

import (
	"context"

	"github.com/stemsi/exstem-engine/internal/model"
)

// ResultSink receives the outcome of a submitted session. It is the hook
// for the external persistence collaborator and is only reached after
// scoring.
type ResultSink interface {
	Publish(ctx context.Context, outcome *model.Outcome) error
}

// Listener observes a running session. Methods are called outside the
// session lock and must not block for long.
type Listener interface {
	OnTick(remaining int)
	OnWarning(w model.Warning)
	OnIntegrityEvent(ev model.IntegrityEvent)
	OnSubmitted(outcome *model.Outcome)
}

// ListenerFuncs adapts optional functions to a Listener.
type ListenerFuncs struct {
	Tick      func(remaining int)
	Warning   func(w model.Warning)
	Event     func(ev model.IntegrityEvent)
	Submitted func(outcome *model.Outcome)
}

func (f ListenerFuncs) OnTick(remaining int) {
	if f.Tick != nil {
		f.Tick(remaining)
	}
}

func (f ListenerFuncs) OnWarning(w model.Warning) {
	if f.Warning != nil {
		f.Warning(w)
	}
}

func (f ListenerFuncs) OnIntegrityEvent(ev model.IntegrityEvent) {
	if f.Event != nil {
		f.Event(ev)
	}
}

func (f ListenerFuncs) OnSubmitted(outcome *model.Outcome) {
	if f.Submitted != nil {
		f.Submitted(outcome)
	}
}
