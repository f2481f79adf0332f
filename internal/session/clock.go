package session

import (
	"sync"
	"time"
)

// TurnClock is a cancellable per-room countdown. It knows nothing about
// the game: it decrements once per interval, reports each remaining
// value through onTick, and fires onExpire exactly once when the count
// reaches zero. Starting a new countdown supersedes the previous one;
// callbacks carry the generation so a consumer can drop stale firings
// that were already in flight when the clock was restarted.
type TurnClock struct {
	interval time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel chan struct{}
}

// NewTurnClock builds a clock ticking at the given interval. Production
// uses one second; tests shrink it.
func NewTurnClock(interval time.Duration) *TurnClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &TurnClock{interval: interval}
}

// Start begins a fresh countdown of seconds ticks and returns its
// generation. Any countdown already running is cancelled first.
func (c *TurnClock) Start(seconds int, onTick func(gen uint64, remaining int), onExpire func(gen uint64)) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		close(c.cancel)
	}
	c.gen++
	gen := c.gen
	cancel := make(chan struct{})
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		remaining := seconds
		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				remaining--
				if onTick != nil {
					onTick(gen, remaining)
				}
				if remaining <= 0 {
					if onExpire != nil {
						onExpire(gen)
					}
					return
				}
			}
		}
	}()
	return gen
}

// Stop cancels the running countdown, if any.
func (c *TurnClock) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	c.mu.Unlock()
}

// Gen returns the most recently issued generation.
func (c *TurnClock) Gen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}
