package client

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// InFlight suppresses duplicate mutations for the same target while one
// is running. Concurrent callers with the same key share the first call's
// result instead of sending their own request. The guard is cooperative,
// the server stays idempotent on its own.
type InFlight struct {
	group singleflight.Group

	mu     sync.Mutex
	active map[string]int
}

func NewInFlight() *InFlight {
	return &InFlight{active: map[string]int{}}
}

// Do runs fn unless a call for key is already running. shared is true
// when the result came from another caller's request.
func (f *InFlight) Do(key string, fn func() error) (shared bool, err error) {
	_, err, shared = f.group.Do(key, func() (any, error) {
		f.mark(key, 1)
		defer f.mark(key, -1)
		return nil, fn()
	})
	return shared, err
}

// Busy reports whether a call for key is running
func (f *InFlight) Busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[key] > 0
}

func (f *InFlight) mark(key string, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[key] += delta
	if f.active[key] <= 0 {
		delete(f.active, key)
	}
}
