// Package daemon keeps a single docwatch process per state file.
//
// The state store assumes it is the only writer of its file, so both the
// watch daemon and one-shot scans take an exclusive flock on
// "<state path>.lock" before opening it. The lock is released by the
// kernel if the process dies, so there are no stale lock files to clean up.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// SingletonLock guards one state file.
type SingletonLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for statePath.
func LockPath(statePath string) string {
	return statePath + ".lock"
}

// NewSingletonLock creates a lock for statePath. Nothing is acquired yet.
func NewSingletonLock(statePath string) *SingletonLock {
	return &SingletonLock{path: LockPath(statePath)}
}

// Path returns the lock file path.
func (s *SingletonLock) Path() string {
	return s.path
}

// Acquire takes the lock without blocking. Returns ErrAlreadyRunning when
// another process (or another SingletonLock in this one) holds it.
func (s *SingletonLock) Acquire() error {
	if s.lock != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(s.path)
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", s.path, err)
	}
	if !locked {
		return fmt.Errorf("%w (lock: %s)", ErrAlreadyRunning, s.path)
	}

	s.lock = fl
	return nil
}

// Release drops the lock. Safe to call when not held.
func (s *SingletonLock) Release() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	return err
}
