package watcher

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FSObserver watches root directories recursively with fsnotify and turns raw
// notifications into create/modify/delete events.
type FSObserver struct {
	handler func(Event)
	ignore  func(path string) bool

	mu      sync.Mutex // Serializes Restart and Stop
	watcher *fsnotify.Watcher
	roots   []string
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
}

// NewFSObserver creates an observer with no roots. handler is called from the
// observer goroutine and must not block for long. ignore, when non-nil,
// excludes directories from registration and paths from delivery.
func NewFSObserver(handler func(Event), ignore func(path string) bool) *FSObserver {
	if ignore == nil {
		ignore = func(string) bool { return false }
	}
	return &FSObserver{handler: handler, ignore: ignore}
}

// Restart builds a fresh fsnotify watcher for roots and swaps it in for the
// running one. Roots that are missing or cannot be walked are logged and left
// out; the registered set is returned. An error means nothing was swapped.
func (o *FSObserver) Restart(roots []string) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return nil, fmt.Errorf("observer stopped")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	registered := make([]string, 0, len(roots))
	for _, root := range roots {
		info, err := os.Stat(root)
		if err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
		if err == nil {
			err = o.addDirectoriesRecursively(w, root)
		}
		if err != nil {
			log.Printf("Warning: failed to watch %s: %v", root, err)
			continue
		}
		registered = append(registered, root)
	}
	sort.Strings(registered)

	o.stopLocked()

	o.watcher = w
	o.roots = registered
	o.stopCh = make(chan struct{})
	o.doneCh = make(chan struct{})
	go o.watch(w, o.stopCh, o.doneCh)

	return append([]string(nil), registered...), nil
}

// Roots returns the currently registered roots.
func (o *FSObserver) Roots() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.roots...)
}

// Stop stops the observer. Safe to call more than once.
func (o *FSObserver) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopped = true
	return o.stopLocked()
}

// stopLocked shuts down the running watcher, if any. Caller holds o.mu.
func (o *FSObserver) stopLocked() error {
	if o.watcher == nil {
		return nil
	}
	close(o.stopCh)
	<-o.doneCh // Wait for goroutine to finish
	err := o.watcher.Close()
	o.watcher = nil
	o.roots = nil
	return err
}

// watch is the main event loop.
func (o *FSObserver) watch(w *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			o.handleEvent(w, event)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// handleEvent maps one fsnotify event onto zero or more Events.
func (o *FSObserver) handleEvent(w *fsnotify.Watcher, event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if o.ignore(path) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Renames arrive as a delete of the old name plus a create of the new one.
		o.emit(Event{Path: path, Op: OpDelete})

	case event.Op&fsnotify.Create != 0:
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			// Handle new directories - add them to watcher, then catch up on
			// files that landed before the registration.
			if err := o.addDirectoriesRecursively(w, path); err != nil {
				log.Printf("Warning: failed to watch new directory %s: %v", path, err)
			}
			o.emitExisting(path)
			return
		}
		o.emit(Event{Path: path, Op: OpCreate})

	case event.Op&fsnotify.Write != 0:
		o.emit(Event{Path: path, Op: OpModify})
	}
}

// emitExisting emits create events for regular files already under dir.
func (o *FSObserver) emitExisting(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && o.ignore(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !o.ignore(path) {
			o.emit(Event{Path: path, Op: OpCreate})
		}
		return nil
	})
}

func (o *FSObserver) emit(ev Event) {
	if o.handler == nil {
		return
	}
	// Fire callback with panic recovery
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: event handler panic for %s: %v", ev.Path, r)
		}
	}()
	o.handler(ev)
}

// addDirectoriesRecursively adds all directories in the tree to the watcher.
func (o *FSObserver) addDirectoriesRecursively(w *fsnotify.Watcher, rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// If it's the root path, fail immediately
			if path == rootPath {
				return err
			}
			// For subdirectories, log but continue
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}

		// Only add directories
		if !d.IsDir() {
			return nil
		}
		if path != rootPath && o.ignore(path) {
			return filepath.SkipDir
		}

		if err := w.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
			return nil // Continue anyway
		}
		return nil
	})
}
