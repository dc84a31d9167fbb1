package indexer

import (
	"context"
	"time"
)

// ChangeStatus is the status reported to the change notifier.
type ChangeStatus string

const (
	StatusAdded    ChangeStatus = "added"
	StatusModified ChangeStatus = "modified"
	StatusDeleted  ChangeStatus = "deleted"
)

// ChunkPayload is the metadata stored alongside a chunk vector.
type ChunkPayload struct {
	Path       string `json:"path"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	Hash       string `json:"hash"`
}

// ChunkUpload is a single chunk ready for upsert.
type ChunkUpload struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload ChunkPayload `json:"payload"`
}

// FileNode describes a file in change notifications.
type FileNode struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Type     string    `json:"type"` // "file" or "dir"
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// VersionRecord is an append-only entry in a path's version history.
type VersionRecord struct {
	Path       string       `json:"path"`
	Version    int          `json:"version"`
	Diff       []string     `json:"diff"`
	Summary    string       `json:"summary"`
	Embedding  []float32    `json:"vector"`
	Hash       string       `json:"hash"`
	ChangeType ChangeStatus `json:"change_type"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Extractor pulls indexable text out of file contents already read from path.
// ok is false when the content is not indexable; err signals a transient failure.
type Extractor interface {
	// Supports reports whether path could be indexable at all. Checked before
	// the file is read.
	Supports(path string) bool
	ExtractBytes(ctx context.Context, path string, data []byte) (text string, ok bool, err error)
}

// ChunkStore holds chunk vectors keyed by chunk id.
type ChunkStore interface {
	// UpsertChunk is idempotent for a given chunk id.
	UpsertChunk(ctx context.Context, chunk ChunkUpload) error

	// DeleteChunks removes chunks by id. Unknown ids are ignored.
	DeleteChunks(ctx context.Context, ids []string) error
}

// ChangeNotifier receives added/modified/deleted notifications.
// node is nil for deletions.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, path string, status ChangeStatus, node *FileNode) error
}

// VersionRecorder appends version records.
type VersionRecorder interface {
	SaveVersion(ctx context.Context, rec VersionRecord) error
}

// SkipReason explains why a processing pass made no changes.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipInFlight     SkipReason = "in_flight"
	SkipIgnored      SkipReason = "ignored"
	SkipVanished     SkipReason = "vanished"
	SkipDirectory    SkipReason = "directory"
	SkipTooLarge     SkipReason = "too_large"
	SkipNotIndexable SkipReason = "not_indexable"
	SkipUnchanged    SkipReason = "unchanged"
)

// ProcessResult describes the outcome of one ProcessFile call.
type ProcessResult struct {
	Path    string
	Class   Classification
	Version int
	Chunks  int
	Skipped SkipReason
}

// Changed reports whether the pass persisted a new record.
func (r ProcessResult) Changed() bool {
	return r.Skipped == SkipNone && (r.Class == Added || r.Class == Modified)
}

// ScanStats summarizes one ScanRoot call.
type ScanStats struct {
	Root      string
	Files     int
	Added     int
	Modified  int
	Unchanged int
	Skipped   int
	Failed    int
	Deleted   int
	// Deferred lists live-event paths suppressed while the scan ran.
	Deferred []string
	Duration time.Duration
}
