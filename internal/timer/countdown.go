package timer

// Countdown is a one-second countdown clock. It does not schedule its own
// ticks; the owner drives Tick on an external cadence, which keeps the
// clock deterministic under test.
//
// A Countdown is owned by a single session controller and is not safe for
// concurrent use on its own.
type Countdown struct {
	initial   int
	remaining int
	running   bool
	expired   bool
}

// New creates a countdown armed with the given duration in seconds.
func New(seconds int) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{initial: seconds, remaining: seconds}
}

// Start sets the clock running. It reports false when the call was a no-op:
// the clock is already running, or it has already reached zero.
func (c *Countdown) Start() bool {
	if c.running || c.remaining == 0 {
		return false
	}
	c.running = true
	return true
}

// Pause stops the clock, preserving the remaining time.
func (c *Countdown) Pause() {
	c.running = false
}

// Tick advances the clock by one second. It reports true exactly once per
// run, on the tick that reaches zero. Ticks while paused, or after the
// clock has expired, are no-ops: the count never goes negative and the
// expiry never fires twice without a Reset in between.
func (c *Countdown) Tick() bool {
	if !c.running {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		return false
	}
	c.running = false
	if c.expired {
		return false
	}
	c.expired = true
	return true
}

// Reset re-arms the clock with a new duration and clears any delivered
// expiry, so a fresh run can complete again.
func (c *Countdown) Reset(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	c.initial = seconds
	c.remaining = seconds
	c.running = false
	c.expired = false
}

// Remaining returns the seconds left on the clock.
func (c *Countdown) Remaining() int { return c.remaining }

// Initial returns the duration the clock was last armed with.
func (c *Countdown) Initial() int { return c.initial }

// Running reports whether the clock is advancing.
func (c *Countdown) Running() bool { return c.running }
