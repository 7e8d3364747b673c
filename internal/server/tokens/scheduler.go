package tokens

import (
	"sync"
	"time"

	"github.com/norsebooks/norsebooks/internal/server/metrics"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

type timerKey struct {
	kind  models.TokenKind
	token string
}

type timerEntry struct {
	t *time.Timer
}

// scheduler runs one deferred callback per token. Callbacks fire at most
// once; Cancel and Close stop the ones that have not fired yet.
type scheduler struct {
	mu     sync.Mutex
	timers map[timerKey]*timerEntry
	closed bool
}

func newScheduler() *scheduler {
	return &scheduler{timers: map[timerKey]*timerEntry{}}
}

// Schedule arranges for fn to run after d, replacing any pending callback
// for the same token. It is a no-op once the scheduler is closed.
func (s *scheduler) Schedule(k timerKey, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if old, ok := s.timers[k]; ok {
		old.t.Stop()
	} else {
		metrics.PendingExpiries.Inc()
	}

	e := &timerEntry{}
	s.timers[k] = e
	// the callback takes the lock, so it cannot observe e before e.t is set
	e.t = time.AfterFunc(d, func() {
		s.mu.Lock()
		current := s.timers[k] == e
		if current {
			delete(s.timers, k)
			metrics.PendingExpiries.Dec()
		}
		s.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel stops the pending callback for k, if any.
func (s *scheduler) Cancel(k timerKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[k]; ok {
		e.t.Stop()
		delete(s.timers, k)
		metrics.PendingExpiries.Dec()
	}
}

// Pending returns the number of callbacks waiting to fire.
func (s *scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops every pending callback and rejects new ones.
func (s *scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.timers {
		e.t.Stop()
		delete(s.timers, k)
		metrics.PendingExpiries.Dec()
	}
	s.closed = true
}
