package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterStore keeps one token bucket per client key, bounded by maxSize.
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[uint64]*entry
	maxSize  int
	limit    rate.Limit
	burst    int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiterStore creates a store allowing perMinute queries per key.
func NewLimiterStore(maxSize, perMinute int) *LimiterStore {
	limit := rate.Limit(0)
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}

	return &LimiterStore{
		limiters: make(map[uint64]*entry),
		maxSize:  maxSize,
		limit:    limit,
		burst:    perMinute,
	}
}

// Get retrieves or creates the limiter for key.
func (s *LimiterStore) Get(key uint64) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	if len(s.limiters) >= s.maxSize {
		s.evictOne()
	}

	e := &entry{
		limiter:  rate.NewLimiter(s.limit, s.burst),
		lastSeen: now,
	}
	s.limiters[key] = e

	return e.limiter
}

// evictOne removes the least recently seen entry out of a bounded sample.
func (s *LimiterStore) evictOne() {
	var (
		oldestKey  uint64
		oldestTime time.Time
		found      bool
		checked    int
	)

	for k, v := range s.limiters {
		if !found || v.lastSeen.Before(oldestTime) {
			oldestKey, oldestTime, found = k, v.lastSeen, true
		}

		checked++
		if checked >= evictSample {
			break
		}
	}

	if found {
		delete(s.limiters, oldestKey)
	}
}

// Cleanup removes entries not seen for olderThan.
func (s *LimiterStore) Cleanup(olderThan time.Duration) {
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(s.limiters, k)
		}
	}
}

// Len returns the number of limiters.
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.limiters)
}

const evictSample = 100
