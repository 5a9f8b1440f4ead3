package app

import "time"

// Countdown counts whole seconds down for a single question. It is not safe
// for concurrent use; the Controller serializes access.
type Countdown struct {
	seconds   int
	remaining int
	armed     bool
}

func NewCountdown(seconds int) *Countdown {
	return &Countdown{seconds: seconds, remaining: seconds}
}

// Reset rearms the countdown at its full duration.
func (c *Countdown) Reset() {
	c.remaining = c.seconds
	c.armed = true
}

// Cancel disarms the countdown; later ticks are ignored.
func (c *Countdown) Cancel() {
	c.armed = false
}

// Tick consumes one second and reports whether this tick expired the
// countdown. Expiry is reported once; the countdown is disarmed afterwards.
func (c *Countdown) Tick() bool {
	if !c.armed {
		return false
	}
	c.remaining--
	if c.remaining > 0 {
		return false
	}
	c.remaining = 0
	c.armed = false
	return true
}

func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) Armed() bool {
	return c.armed
}

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates the ticker used to drive a question's countdown.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}
