package websocket

import (
	"errors"
	"sync"
)

// ErrNoClient is returned when a fullscreen request cannot reach any page.
var ErrNoClient = errors.New("no exam page attached")

// FullscreenRelay forwards fullscreen requests to the pages attached to a
// session. A request made while no page is attached is held and delivered
// to the next page that attaches.
type FullscreenRelay struct {
	mu      sync.Mutex
	next    int
	senders map[int]func() error
	pending bool
}

// NewFullscreenRelay creates an empty relay.
func NewFullscreenRelay() *FullscreenRelay {
	return &FullscreenRelay{senders: make(map[int]func() error)}
}

// RequestFullscreen implements integrity.FullscreenController. It succeeds
// if at least one attached page accepted the request, or if the request was
// held for a page that has not attached yet.
func (r *FullscreenRelay) RequestFullscreen() error {
	r.mu.Lock()
	if len(r.senders) == 0 {
		r.pending = true
		r.mu.Unlock()
		return nil
	}
	senders := make([]func() error, 0, len(r.senders))
	for _, s := range r.senders {
		senders = append(senders, s)
	}
	r.mu.Unlock()

	var errs []error
	for _, send := range senders {
		if err := send(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(senders) {
		return errors.Join(append([]error{ErrNoClient}, errs...)...)
	}
	return nil
}

// Attach registers a page. A held request is delivered immediately.
func (r *FullscreenRelay) Attach(send func() error) (detach func(), err error) {
	r.mu.Lock()
	r.next++
	id := r.next
	r.senders[id] = send
	pending := r.pending
	r.pending = false
	r.mu.Unlock()

	if pending {
		err = send()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.senders, id)
			r.mu.Unlock()
		})
	}, err
}

// Attached returns the number of attached pages.
func (r *FullscreenRelay) Attached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.senders)
}
