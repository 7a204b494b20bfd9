package remote

import (
	"sync"
	"time"
)

// DefaultStatusTTL is how long a status message stays visible.
const DefaultStatusTTL = 3 * time.Second

// StatusObserver is told about every status change, including auto-clear.
type StatusObserver func(msg string)

// Session is the remote-fetch state of one process run. It is never
// persisted.
type Session struct {
	mu        sync.Mutex
	fetched   bool
	pending   bool
	status    string
	ttl       time.Duration
	timer     *time.Timer
	gen       uint64
	observers map[int]StatusObserver
	nextObs   int
}

// NewSession returns a fresh session whose status messages expire after
// ttl. A non-positive ttl uses DefaultStatusTTL.
func NewSession(ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &Session{
		ttl:       ttl,
		observers: make(map[int]StatusObserver),
	}
}

// Fetched reports whether a fetch has merged at least one task.
func (s *Session) Fetched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched
}

// Pending reports whether a fetch is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Status returns the current status message, or "" when none is shown.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OnStatus registers fn for status changes. The returned function removes
// it.
func (s *Session) OnStatus(fn StatusObserver) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextObs
	s.nextObs++
	s.observers[key] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, key)
	}
}

// SetStatus shows msg and schedules it to clear after the TTL. Any earlier
// pending clear is cancelled. An empty msg clears immediately.
func (s *Session) SetStatus(msg string) {
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.status = msg
	if msg != "" {
		gen := s.gen
		s.timer = time.AfterFunc(s.ttl, func() { s.expire(gen) })
	}
	observers := s.observerList()
	s.mu.Unlock()

	for _, fn := range observers {
		fn(msg)
	}
}

// Close cancels any pending clear.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// expire clears the status set in generation gen unless a newer message
// has replaced it.
func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.status == "" {
		s.mu.Unlock()
		return
	}
	s.status = ""
	s.timer = nil
	observers := s.observerList()
	s.mu.Unlock()

	for _, fn := range observers {
		fn("")
	}
}

func (s *Session) begin() {
	s.mu.Lock()
	s.pending = true
	s.mu.Unlock()
	s.SetStatus("")
}

func (s *Session) finish(fetched bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fetched {
		s.fetched = true
	}
	s.pending = false
}

func (s *Session) observerList() []StatusObserver {
	out := make([]StatusObserver, 0, len(s.observers))
	for _, fn := range s.observers {
		out = append(out, fn)
	}
	return out
}
