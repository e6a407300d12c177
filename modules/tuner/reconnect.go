package tuner

import (
	"sync"
	"time"
)

// reconnectScheduler owns the single deferred retry. Arming a new timer
// cancels any prior one, so at most one retry can ever be outstanding.
type reconnectScheduler struct {
	mu    sync.Mutex
	base  time.Duration
	timer *time.Timer
}

func newReconnectScheduler(base time.Duration) *reconnectScheduler {
	if base <= 0 {
		base = defaultReconnectBase
	}
	return &reconnectScheduler{base: base}
}

// delay computes the backoff for an attempt: base << attempt, giving
// 2s, 4s, 8s, 16s, 32s for attempts 1..5 at the default base.
func (s *reconnectScheduler) delay(attempt int) time.Duration {
	return s.base << uint(attempt)
}

// schedule arms fn to run after the backoff delay for attempt, cancelling
// any previously armed retry. It returns the delay used.
func (s *reconnectScheduler) schedule(attempt int, fn func()) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}

	d := s.delay(attempt)
	s.timer = time.AfterFunc(d, fn)
	return d
}

// cancel stops any pending retry. A timer whose function already started
// cannot be stopped here; the tuner discards such late firings by
// generation check.
func (s *reconnectScheduler) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
