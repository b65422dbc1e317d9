package timer

import (
	"sync"
	"time"
)

// ManualClock is a logical tick source advanced explicitly. Tests and the
// offline simulator use it for deterministic countdowns.
type ManualClock struct {
	mu   sync.Mutex
	tick func()
	gen  int
}

// NewManualClock creates an idle manual clock.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Run implements TickSource.
func (c *ManualClock) Run(tick func()) func() {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.tick = tick
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen == gen {
			c.tick = nil
		}
	}
}

// Advance delivers seconds ticks, stopping early once the consumer stops
// the clock.
func (c *ManualClock) Advance(seconds int) {
	for i := 0; i < seconds; i++ {
		c.mu.Lock()
		fn := c.tick
		c.mu.Unlock()

		if fn == nil {
			return
		}
		fn()
	}
}

// Active reports whether a consumer is attached.
func (c *ManualClock) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick != nil
}

// WallClock adapts a time.Ticker into a TickSource.
type WallClock struct {
	interval time.Duration
}

// NewWallClock creates a wall clock ticking every interval; a non-positive
// interval means one second.
func NewWallClock(interval time.Duration) *WallClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &WallClock{interval: interval}
}

// Run implements TickSource. Each call starts its own goroutine.
func (c *WallClock) Run(tick func()) func() {
	ticker := time.NewTicker(c.interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// Stop may have raced with a pending tick.
				select {
				case <-done:
					return
				default:
				}
				tick()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
