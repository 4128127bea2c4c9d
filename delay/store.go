// Package delay keeps the NoData reply delay and follows its config file.
package delay

import (
	"sync/atomic"
	"time"

	"github.com/semihalev/zlog/v2"
)

// Store holds the NoData reply delay in milliseconds. It is written by a single
// Watcher and read by every in-flight query; reads never block.
type Store struct {
	ms      atomic.Int64
	defined atomic.Bool
}

// NewStore returns an undefined store, see SetDefault.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current delay in milliseconds.
func (s *Store) Get() int64 {
	return s.ms.Load()
}

// Duration returns the current delay.
func (s *Store) Duration() time.Duration {
	return time.Duration(s.Get()) * time.Millisecond
}

// Defined reports whether a value was ever set.
func (s *Store) Defined() bool {
	return s.defined.Load()
}

// Set stores ms and reports whether the value changed. Negative values are ignored.
func (s *Store) Set(ms int64) bool {
	if ms < 0 {
		return false
	}

	if s.defined.Load() {
		if s.ms.Swap(ms) == ms {
			return false
		}

		zlog.Info("Updated NoData packet delay", "delay_ms", ms)

		return true
	}

	s.ms.Store(ms)
	s.defined.Store(true)

	return true
}

// SetDefault stores ms only when nothing was set before.
func (s *Store) SetDefault(ms int64) {
	if s.defined.Load() {
		return
	}

	s.Set(ms)
}
