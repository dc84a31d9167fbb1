package indexer

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when a path is already being processed.
var ErrInFlight = errors.New("path already in flight")

// InFlightGuard rejects concurrent processing of the same path.
// Callers that fail to acquire must skip, not wait.
type InFlightGuard struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewInFlightGuard creates an empty guard.
func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{paths: make(map[string]struct{})}
}

// TryAcquire marks path as in flight. Returns false if it already is.
func (g *InFlightGuard) TryAcquire(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.paths[path]; held {
		return false
	}
	g.paths[path] = struct{}{}
	return true
}

// Release clears the in-flight mark for path.
func (g *InFlightGuard) Release(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.paths, path)
}

// Do runs fn while holding path. Returns ErrInFlight without calling fn if
// the path is held. The path is released even if fn panics.
func (g *InFlightGuard) Do(path string, fn func() error) error {
	if !g.TryAcquire(path) {
		return ErrInFlight
	}
	defer g.Release(path)
	return fn()
}
