package clock

import (
	"sync"
	"time"
)

// Clock supplies the engine's notion of current time in unix seconds.
type Clock interface {
	Now() uint64
}

// Wall is the system clock.
type Wall struct{}

func (Wall) Now() uint64 {
	return uint64(time.Now().Unix())
}

// Manual is an externally driven clock for tests and simulation.
type Manual struct {
	mu  sync.Mutex
	now uint64
}

func NewManual(start uint64) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by the given number of seconds.
func (m *Manual) Advance(seconds uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += seconds
	return m.now
}

// Set jumps to an absolute timestamp. Time never moves backwards.
func (m *Manual) Set(ts uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts > m.now {
		m.now = ts
	}
}
