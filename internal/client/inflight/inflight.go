// Package inflight rejects re-entrant invocations of a logical action while
// a previous invocation of the same action is still outstanding.
package inflight

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrInFlight is returned by Acquire when the action is already running.
var ErrInFlight = errors.New("action already in progress")

// Guard hands out one slot per action name.
type Guard struct {
	mu    sync.Mutex
	slots map[string]*semaphore.Weighted
}

func NewGuard() *Guard {
	return &Guard{slots: make(map[string]*semaphore.Weighted)}
}

func (g *Guard) slot(action string) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.slots[action]
	if !ok {
		s = semaphore.NewWeighted(1)
		g.slots[action] = s
	}
	return s
}

// Acquire claims action without blocking. The returned release must be
// called exactly once; further calls are no-ops.
func (g *Guard) Acquire(action string) (release func(), err error) {
	s := g.slot(action)
	if !s.TryAcquire(1) {
		return nil, fmt.Errorf("%s: %w", action, ErrInFlight)
	}

	var once sync.Once
	return func() { once.Do(func() { s.Release(1) }) }, nil
}
