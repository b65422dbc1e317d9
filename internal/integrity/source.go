package integrity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/stemsi/exstem-engine/internal/model"
)

// ErrUnknownKind is returned when subscribing to or emitting an unknown
// signal kind.
var ErrUnknownKind = errors.New("unknown integrity signal kind")

// SignalSource delivers environment signals (tab visibility, window focus,
// fullscreen changes) to subscribers.
type SignalSource interface {
	Subscribe(kind model.IntegrityKind, handler func(model.IntegrityEvent)) (unsubscribe func(), err error)
}

// FullscreenController asks the exam page to (re-)enter fullscreen.
type FullscreenController interface {
	RequestFullscreen() error
}

// Bus is an in-memory SignalSource. Transport adapters (WebSocket stream,
// HTTP signal endpoint) emit into it; the monitor subscribes to it.
type Bus struct {
	mu       sync.Mutex
	next     int
	handlers map[model.IntegrityKind]map[int]func(model.IntegrityEvent)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[model.IntegrityKind]map[int]func(model.IntegrityEvent)),
	}
}

// Subscribe implements SignalSource.
func (b *Bus) Subscribe(kind model.IntegrityKind, handler func(model.IntegrityEvent)) (func(), error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[int]func(model.IntegrityEvent))
	}
	b.handlers[kind][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[kind], id)
		})
	}, nil
}

// Emit delivers ev to every subscriber of its kind and returns how many
// handlers were called. Handlers run on the caller's goroutine, outside the
// bus lock.
func (b *Bus) Emit(ev model.IntegrityEvent) (int, error) {
	if !ev.Kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
	}

	b.mu.Lock()
	hs := make([]func(model.IntegrityEvent), 0, len(b.handlers[ev.Kind]))
	for _, h := range b.handlers[ev.Kind] {
		hs = append(hs, h)
	}
	b.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
	return len(hs), nil
}

// Subscribers returns the number of live subscriptions for kind.
func (b *Bus) Subscribers(kind model.IntegrityKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}
