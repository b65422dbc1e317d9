package websocket

import (
	"sync"
)

// DefaultOutboxSize is the number of pushed events a connection may have
// in flight before newer ones are dropped.
const DefaultOutboxSize = 32

// Writer is the part of Conn the outbox writes through.
type Writer interface {
	WriteTyped(v interface{}) error
	Close() error
}

// Outbox decouples session listeners from a connection's write speed.
// Listeners enqueue without blocking; a single goroutine running Run does
// the writes. A full queue drops the event, so a stalled page only loses
// its own ticks and warnings.
type Outbox struct {
	w     Writer
	queue chan interface{}
	final chan interface{}
	stop  chan struct{}
	done  chan struct{}

	finishOnce sync.Once
	stopOnce   sync.Once
}

// NewOutbox creates an outbox over w holding up to size queued events.
func NewOutbox(w Writer, size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{
		w:     w,
		queue: make(chan interface{}, size),
		final: make(chan interface{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Send enqueues v. It reports false when the queue is full and v was
// dropped.
func (o *Outbox) Send(v interface{}) bool {
	select {
	case o.queue <- v:
		return true
	default:
		return false
	}
}

// Finish enqueues the last event of the stream. Run writes it after the
// events already queued, then closes the connection. Only the first call
// has an effect.
func (o *Outbox) Finish(v interface{}) {
	o.finishOnce.Do(func() {
		o.final <- v
	})
}

// Stop ends Run without writing anything further.
func (o *Outbox) Stop() {
	o.stopOnce.Do(func() { close(o.stop) })
}

// Done is closed once Run has returned.
func (o *Outbox) Done() <-chan struct{} { return o.done }

// Run writes queued events until Finish, Stop or a write failure. A write
// failure closes the connection so the reader notices.
func (o *Outbox) Run() {
	defer close(o.done)
	for {
		select {
		case <-o.stop:
			return
		case v := <-o.queue:
			if err := o.w.WriteTyped(v); err != nil {
				_ = o.w.Close()
				return
			}
		case v := <-o.final:
			o.drain()
			_ = o.w.WriteTyped(v)
			_ = o.w.Close()
			return
		}
	}
}

func (o *Outbox) drain() {
	for {
		select {
		case v := <-o.queue:
			if err := o.w.WriteTyped(v); err != nil {
				return
			}
		default:
			return
		}
	}
}
