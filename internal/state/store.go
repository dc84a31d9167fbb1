package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrCorrupt indicates the state file exists but could not be decoded.
var ErrCorrupt = errors.New("corrupt state file")

// FileRecord is the last successfully processed snapshot of a path.
type FileRecord struct {
	Hash     string    `json:"hash"`
	ChunkIDs []string  `json:"chunk_ids"`
	ModTime  time.Time `json:"mtime"`
	Size     int64     `json:"size"`
	Text     string    `json:"text"`
	Version  int       `json:"version"`
}

// Clone returns a deep copy so callers can mutate it without touching the store.
func (r FileRecord) Clone() FileRecord {
	out := r
	if r.ChunkIDs != nil {
		out.ChunkIDs = append([]string(nil), r.ChunkIDs...)
	}
	return out
}

// Store is the persisted mapping from absolute path to FileRecord.
// The whole map is rewritten on every mutation. A Store assumes it is the
// only writer of its file.
type Store struct {
	path    string
	mu      sync.Mutex
	records map[string]FileRecord
}

// Open loads the state file at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	s.records = records
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file from disk without touching the in-memory map.
func (s *Store) Load() (map[string]FileRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]FileRecord), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	records := make(map[string]FileRecord)
	if len(strings.TrimSpace(string(data))) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorrupt, s.path, err)
	}
	return records, nil
}

// Save replaces the whole state with records and persists it.
func (s *Store) Save(records map[string]FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]FileRecord, len(records))
	for k, v := range records {
		next[k] = v.Clone()
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// Get returns a copy of the record for path.
func (s *Store) Get(path string) (FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[path]
	if !ok {
		return FileRecord{}, false
	}
	return rec.Clone(), true
}

// Put stores rec under path and persists the full map.
func (s *Store) Put(path string, rec FileRecord) error {
	return s.Update(path, func(FileRecord, bool) (FileRecord, bool) {
		return rec, true
	})
}

// Update performs a read-modify-write of one record. fn receives the current
// record (if any) and returns the new record and whether to keep it; returning
// false removes the path. Nothing is written if persisting fails.
func (s *Store) Update(path string, fn func(rec FileRecord, exists bool) (FileRecord, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.records[path]
	next, keep := fn(cur.Clone(), exists)

	updated := make(map[string]FileRecord, len(s.records)+1)
	for k, v := range s.records {
		updated[k] = v
	}
	if keep {
		updated[path] = next.Clone()
	} else {
		if !exists {
			return nil
		}
		delete(updated, path)
	}

	if err := s.write(updated); err != nil {
		return err
	}
	s.records = updated
	return nil
}

// Delete removes path. Deleting a missing path is a no-op.
func (s *Store) Delete(path string) error {
	return s.Update(path, func(FileRecord, bool) (FileRecord, bool) {
		return FileRecord{}, false
	})
}

// Snapshot returns a copy of every record.
func (s *Store) Snapshot() map[string]FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]FileRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v.Clone()
	}
	return out
}

// Under returns a copy of the records whose path is root or lies beneath it.
func (s *Store) Under(root string) map[string]FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]FileRecord)
	for k, v := range s.records {
		if IsUnder(k, root) {
			out[k] = v.Clone()
		}
	}
	return out
}

// Paths returns every recorded path in sorted order.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.records))
	for k := range s.records {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// write persists records using atomic write (temp + rename).
// Caller must hold s.mu.
func (s *Store) write(records map[string]FileRecord) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// IsUnder reports whether path equals root or is contained in it.
func IsUnder(path, root string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}
