package dao

import (
	"sync"
	"time"
)

// Clock is the ambient time source proposals are gated on
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// MonotonicClock never reports a time earlier than one it already reported.
// The underlying source can be moved by whoever controls it, it just can't go back.
type MonotonicClock struct {
	mu   sync.Mutex
	src  Clock
	last time.Time
}

func NewMonotonicClock(src Clock) *MonotonicClock {
	return &MonotonicClock{src: src}
}

func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.src.Now()
	if t.Before(c.last) {
		return c.last
	}

	c.last = t
	return t
}

// ManualClock is a clock that only moves when told to
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}
