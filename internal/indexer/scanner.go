package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mvp-joe/docwatch/internal/state"
)

// ErrScanInProgress is returned when a root is already being scanned.
var ErrScanInProgress = errors.New("scan already in progress")

// ScanSet tracks roots under an active full scan. Live create/modify events
// for paths beneath a scanning root are deferred to the scan.
type ScanSet struct {
	mu       sync.Mutex
	roots    map[string]struct{}
	deferred map[string]map[string]struct{}
}

// NewScanSet creates an empty ScanSet.
func NewScanSet() *ScanSet {
	return &ScanSet{
		roots:    make(map[string]struct{}),
		deferred: make(map[string]map[string]struct{}),
	}
}

// Begin marks root as scanning. Returns false if it already is.
func (s *ScanSet) Begin(root string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roots[root]; ok {
		return false
	}
	s.roots[root] = struct{}{}
	s.deferred[root] = make(map[string]struct{})
	return true
}

// End unmarks root and returns the paths deferred while it was scanning.
func (s *ScanSet) End(root string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.deferred[root]
	delete(s.roots, root)
	delete(s.deferred, root)

	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Defer records path against its scanning root. Returns false (and records
// nothing) when no scanning root covers path.
func (s *ScanSet) Defer(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.coveringRoot(path)
	if root == "" {
		return false
	}
	s.deferred[root][path] = struct{}{}
	return true
}

// coveringRoot returns the scanning root containing path. Caller holds s.mu.
func (s *ScanSet) coveringRoot(path string) string {
	for root := range s.roots {
		if state.IsUnder(path, root) {
			return root
		}
	}
	return ""
}

// ScanProgress receives scan progress callbacks.
type ScanProgress interface {
	OnScanStart(root string)
	OnFileScanned(path string, res ProcessResult)
	OnScanComplete(stats *ScanStats)
}

// NoOpScanProgress discards progress callbacks.
type NoOpScanProgress struct{}

func (NoOpScanProgress) OnScanStart(string)                  {}
func (NoOpScanProgress) OnFileScanned(string, ProcessResult) {}
func (NoOpScanProgress) OnScanComplete(*ScanStats)           {}

// Scanner walks a root, runs the per-path pipeline for every file, and
// reconciles deletions against the state store.
type Scanner struct {
	processor *Processor
	scans     *ScanSet
}

// NewScanner creates a Scanner sharing scans with the live-event path.
func NewScanner(processor *Processor, scans *ScanSet) *Scanner {
	if scans == nil {
		scans = NewScanSet()
	}
	return &Scanner{processor: processor, scans: scans}
}

// Scans returns the shared ScanSet.
func (s *Scanner) Scans() *ScanSet {
	return s.scans
}

// ScanRoot performs a full recursive scan of root.
//
// Algorithm:
//  1. Snapshot the records under root
//  2. Mark root as scanning
//  3. Walk root, processing every eligible file (temp files and files above
//     the size ceiling are skipped and do not count as present)
//  4. Unmark root
//  5. Records from step 1 whose file was not seen (and is still absent) are
//     confirmed deleted
//
// If the walk itself fails (root missing, cancelled) no deletions are issued.
func (s *Scanner) ScanRoot(ctx context.Context, root string, progress ScanProgress) (*ScanStats, error) {
	if progress == nil {
		progress = NoOpScanProgress{}
	}
	root = filepath.Clean(root)
	start := time.Now()

	store := s.processor.Store()
	pre := store.Under(root)

	if !s.scans.Begin(root) {
		return nil, fmt.Errorf("%w: %s", ErrScanInProgress, root)
	}

	stats := &ScanStats{Root: root}
	progress.OnScanStart(root)

	seen := make(map[string]struct{})
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && s.processor.Ignored(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if s.processor.Ignored(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if s.processor.TooLarge(info.Size()) {
			stats.Skipped++
			return nil
		}

		seen[path] = struct{}{}
		stats.Files++

		res, err := s.processor.ProcessFile(ctx, path)
		if err != nil {
			log.Printf("Warning: failed to index %s: %v", path, err)
			stats.Failed++
		} else {
			switch {
			case res.Skipped == SkipUnchanged:
				stats.Unchanged++
			case res.Skipped != SkipNone:
				stats.Skipped++
			case res.Class == Added:
				stats.Added++
			case res.Class == Modified:
				stats.Modified++
			}
		}
		progress.OnFileScanned(path, res)
		return nil
	})

	stats.Deferred = s.scans.End(root)

	if walkErr != nil {
		stats.Duration = time.Since(start)
		return stats, fmt.Errorf("failed to scan %s: %w", root, walkErr)
	}

	post := store.Under(root)
	for path := range post {
		if _, ok := seen[path]; !ok {
			delete(post, path)
		}
	}

	var errs []error
	for _, path := range deletedPaths(pre, post) {
		if _, err := os.Stat(path); err == nil {
			// Reappeared after the walk passed it; the live event owns it.
			continue
		}
		deleted, err := s.processor.DeleteFile(ctx, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if deleted {
			stats.Deleted++
		}
	}

	stats.Duration = time.Since(start)
	progress.OnScanComplete(stats)

	log.Printf("✓ Scanned %s: %d files (%d added, %d modified, %d unchanged, %d deleted, %d failed) in %v",
		root, stats.Files, stats.Added, stats.Modified, stats.Unchanged, stats.Deleted, stats.Failed,
		stats.Duration.Round(time.Millisecond))

	return stats, errors.Join(errs...)
}

// deletedPaths returns the keys of pre missing from post, sorted.
func deletedPaths(pre, post map[string]state.FileRecord) []string {
	var out []string
	for path := range pre {
		if _, ok := post[path]; !ok {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}
