package todo

import (
	"sync"
	"time"
)

// IDGenerator hands out task ids derived from the creation time in
// milliseconds. Two calls in the same millisecond still get distinct,
// increasing ids.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator backed by the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns an id greater than every id this generator returned before
// and not rejected by taken. taken may be nil.
func (g *IDGenerator) Next(taken func(int64) bool) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	for taken != nil && taken(id) {
		id++
	}
	g.last = id
	return id
}
