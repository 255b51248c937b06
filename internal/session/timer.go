package session

import (
	"sync"
	"time"
)

// Countdown tracks a fixed deadline derived from the attempt's start
// timestamp. Remaining time is always recomputed from the wall clock
// rather than decremented per tick, so a suspended or throttled client
// cannot stretch the exam.
type Countdown struct {
	mu        sync.Mutex
	startedAt time.Time
	duration  time.Duration
	now       func() time.Time
	timer     *time.Timer
	stopped   bool
	expired   bool
}

// newCountdown arms a countdown that calls onExpire once when the
// deadline passes. A deadline already in the past fires immediately.
func newCountdown(startedAt time.Time, duration time.Duration, now func() time.Time, onExpire func()) *Countdown {
	c := &Countdown{
		startedAt: startedAt,
		duration:  duration,
		now:       now,
	}

	delay := duration - now().Sub(startedAt)
	if delay < 0 {
		delay = 0
	}
	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.stopped || c.expired {
			c.mu.Unlock()
			return
		}
		c.expired = true
		c.mu.Unlock()
		onExpire()
	})

	return c
}

// Remaining returns whole seconds left, never negative.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return 0
	}
	rem := c.duration - c.now().Sub(c.startedAt)
	if rem < 0 {
		rem = 0
	}
	return int(rem / time.Second)
}

// Stop cancels the countdown on manual submit. After Stop the expiry
// callback will not fire, even if the underlying timer was already
// scheduled. Returns false if the countdown had already expired.
func (c *Countdown) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return false
	}
	c.stopped = true
	c.timer.Stop()
	return true
}

// Expired reports whether the countdown has fired.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}
