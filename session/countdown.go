package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Countdown is a pausable countdown clock. While running it calls the tick
// callback every interval; when it reaches zero it calls the expire function
// given to Start, once, on the clock's goroutine.
type Countdown struct {
	clock    clock.Clock
	interval time.Duration
	onTick   func()

	mu        sync.Mutex
	remaining time.Duration
	deadline  time.Time
	running   bool
	expire    func()
	timer     *clock.Timer
	done      chan struct{}
	gen       uint64
}

// NewCountdown creates a stopped countdown. A nil clock means wall time; a
// zero interval or nil onTick disables ticking.
func NewCountdown(clk clock.Clock, interval time.Duration, onTick func()) *Countdown {
	if clk == nil {
		clk = clock.New()
	}
	return &Countdown{clock: clk, interval: interval, onTick: onTick}
}

// Start discards any running countdown and starts a new one of length d.
func (c *Countdown) Start(d time.Duration, expire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halt()
	c.remaining = d
	c.expire = expire
	c.resume()
}

// Pause freezes the countdown. Lap keeps reporting the frozen value.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.remaining = c.left()
	c.halt()
}

// Resume continues a paused countdown. It does nothing once the countdown
// has expired or been stopped.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.expire == nil {
		return
	}
	c.resume()
}

// Stop cancels the countdown without calling expire.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halt()
	c.remaining = 0
	c.expire = nil
}

// Lap returns the time left, never less than zero.
func (c *Countdown) Lap() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return c.left()
	}
	return c.remaining
}

// Running reports whether the countdown is counting down.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Countdown) left() time.Duration {
	d := c.deadline.Sub(c.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

func (c *Countdown) resume() {
	c.gen++
	gen := c.gen
	c.running = true
	c.deadline = c.clock.Now().Add(c.remaining)
	c.timer = c.clock.AfterFunc(c.remaining, func() { c.fire(gen) })
	if c.interval > 0 && c.onTick != nil {
		c.done = make(chan struct{})
		go c.tick(c.clock.Ticker(c.interval), c.done)
	}
}

func (c *Countdown) halt() {
	if !c.running {
		return
	}
	c.running = false
	c.gen++
	c.timer.Stop()
	c.timer = nil
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

func (c *Countdown) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return
	}
	c.halt()
	c.remaining = 0
	expire := c.expire
	c.expire = nil
	c.mu.Unlock()

	if expire != nil {
		expire()
	}
}

func (c *Countdown) tick(t *clock.Ticker, done <-chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-t.C:
			select {
			case <-done:
				return
			default:
			}
			c.onTick()
		case <-done:
			return
		}
	}
}
