package indexer

import "github.com/mvp-joe/docwatch/internal/state"

// Classification is the change class of a path relative to its last record.
type Classification int

const (
	Unchanged Classification = iota
	Added
	Modified
)

// String returns a human-readable representation of the classification.
func (c Classification) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Status maps the classification to the notification status.
func (c Classification) Status() ChangeStatus {
	if c == Added {
		return StatusAdded
	}
	return StatusModified
}

// Classify compares the previous record (nil when the path is unknown) with
// the freshly computed content hash. The hash is authoritative; mtime and
// size are not consulted.
func Classify(prev *state.FileRecord, currentHash string) Classification {
	switch {
	case prev == nil:
		return Added
	case prev.Hash != currentHash:
		return Modified
	default:
		return Unchanged
	}
}

// NextVersion returns the version to persist for an accepted change.
// Added always starts at 1. Modified advances by one when the extracted text
// changed; a hash change with identical text keeps the previous version.
func NextVersion(prev *state.FileRecord, class Classification, textChanged bool) int {
	switch class {
	case Added:
		return 1
	case Modified:
		if prev == nil {
			return 1
		}
		if textChanged {
			return prev.Version + 1
		}
		return prev.Version
	default:
		if prev == nil {
			return 0
		}
		return prev.Version
	}
}
