package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// DefaultPollInterval is how often the root authority is polled.
const DefaultPollInterval = 5 * time.Second

// RootSynchronizer keeps the observer's roots in line with a RootSource.
// Newly added roots get a full scan; removed roots are simply unwatched.
type RootSynchronizer struct {
	source   RootSource
	observer Observer
	launch   func(root string)
	interval time.Duration

	mu      sync.Mutex // Guards root replacement
	desired []string   // Last set fetched from the source
	roots   []string   // Subset the observer registered
}

// NewRootSynchronizer creates a synchronizer. launch is invoked in its own
// goroutine for every newly added root.
func NewRootSynchronizer(source RootSource, observer Observer, launch func(root string), interval time.Duration) *RootSynchronizer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if launch == nil {
		launch = func(string) {}
	}
	return &RootSynchronizer{
		source:   source,
		observer: observer,
		launch:   launch,
		interval: interval,
	}
}

// Roots returns the active root set.
func (s *RootSynchronizer) Roots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.roots...)
}

// Reconcile fetches the desired roots and, if they differ from the active
// set, restarts the observer and launches scans for added roots. Desired roots
// the observer could not register stay pending and are retried once they
// exist on disk. On any error the active set is left as it was.
func (s *RootSynchronizer) Reconcile(ctx context.Context) (bool, error) {
	desired, err := s.source.FetchWatchRoots(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch watch roots: %w", err)
	}
	desired = NormalizeRoots(desired)

	s.mu.Lock()
	defer s.mu.Unlock()

	if equalRoots(s.desired, desired) && !anyDirExists(diffRoots(desired, s.roots)) {
		return false, nil
	}

	registered, err := s.observer.Restart(desired)
	if err != nil {
		return false, err
	}

	added := diffRoots(registered, s.roots)
	changed := !equalRoots(registered, s.roots)
	s.desired = desired
	s.roots = registered
	if changed {
		log.Printf("✓ Watching %d root(s)", len(registered))
	}
	if pending := len(desired) - len(registered); pending > 0 {
		log.Printf("Warning: %d watch root(s) unavailable, will retry", pending)
	}

	for _, root := range added {
		go s.launch(root)
	}
	return changed, nil
}

// Run reconciles immediately and then on every poll tick until ctx is done.
// Failures are logged and retried on the next tick.
func (s *RootSynchronizer) Run(ctx context.Context) error {
	if _, err := s.Reconcile(ctx); err != nil {
		log.Printf("Warning: watch root sync failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Reconcile(ctx); err != nil {
				log.Printf("Warning: watch root sync failed: %v", err)
			}
		}
	}
}

// NormalizeRoots makes roots absolute and clean, drops empties and
// duplicates, and sorts them.
func NormalizeRoots(roots []string) []string {
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == "" {
			continue
		}
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		r = filepath.Clean(r)
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// anyDirExists reports whether any of paths is now an existing directory.
func anyDirExists(paths []string) bool {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func equalRoots(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffRoots returns the entries of a not in b.
func diffRoots(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, r := range b {
		in[r] = true
	}
	var out []string
	for _, r := range a {
		if !in[r] {
			out = append(out, r)
		}
	}
	return out
}
