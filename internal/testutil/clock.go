package testutil

import "sync"

// FixedClock is a thread-safe wall clock for tests: it reports a
// millisecond timestamp that only moves when the test advances it.
// Time-based retention tests use it to place rows on either side of a
// cutoff deterministically.
type FixedClock struct {
	mu  sync.Mutex
	now int64
}

// NewFixedClock creates a clock frozen at nowMillis.
func NewFixedClock(nowMillis int64) *FixedClock {
	return &FixedClock{now: nowMillis}
}

// NowMillis returns the current frozen time.
func (c *FixedClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by deltaMillis.
func (c *FixedClock) Advance(deltaMillis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += deltaMillis
}

// Set jumps the clock to nowMillis.
func (c *FixedClock) Set(nowMillis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = nowMillis
}
