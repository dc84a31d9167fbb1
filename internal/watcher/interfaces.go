package watcher

import "context"

// Op is the kind of a filesystem event after normalization.
type Op int

const (
	OpCreate Op = iota + 1
	OpModify
	OpDelete
)

// String returns a human-readable representation of the op.
func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is a normalized filesystem event for a single path.
type Event struct {
	Path string
	Op   Op
}

// Observer delivers filesystem events for a replaceable set of roots.
type Observer interface {
	// Restart replaces the watched roots and returns the subset that could
	// be registered. On error the previous registrations stay active.
	Restart(roots []string) ([]string, error)

	// Roots returns the currently registered roots.
	Roots() []string

	// Stop stops the observer and cleans up resources.
	Stop() error
}

// Handler runs the per-path pipeline when scheduled actions fire.
type Handler interface {
	// Process indexes path after its debounce delay.
	Process(ctx context.Context, path string)

	// ConfirmDelete handles a path confirmed absent after the delete delay.
	// Returning indexer.ErrInFlight re-arms the delete.
	ConfirmDelete(ctx context.Context, path string) error
}

// RootSource is the authority for the desired watch-root set.
type RootSource interface {
	FetchWatchRoots(ctx context.Context) ([]string, error)
}

// StaticRoots is a RootSource with a fixed root set.
type StaticRoots []string

// FetchWatchRoots implements RootSource.
func (s StaticRoots) FetchWatchRoots(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}
