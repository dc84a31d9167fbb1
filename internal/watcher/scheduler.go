package watcher

import (
	"context"
	"errors"
	"log"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mvp-joe/docwatch/internal/indexer"
	"github.com/mvp-joe/docwatch/internal/logging"
)

// Default scheduler delays.
const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultDeleteDelay = time.Second
)

const (
	taskPending int32 = iota
	taskFired
	taskCancelled
)

// deleteTask is a pending delete confirmation. Exactly one of fire and cancel
// wins the CAS out of taskPending.
type deleteTask struct {
	path  string
	timer *time.Timer
	state atomic.Int32
}

// Scheduler turns bursty filesystem signals into debounced processing and
// delayed delete confirmation.
//
// A Touch schedules processing after the debounce delay; repeated touches
// each fire (the pipeline is idempotent on unchanged content). A delete is
// confirmed only after the delete delay and only if the path is still absent;
// a Touch for the same path before then cancels it.
type Scheduler struct {
	handler     Handler
	debounce    time.Duration
	deleteDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pending   map[string]*deleteTask
	debounces map[*time.Timer]struct{}
	stopped   bool
	wg        sync.WaitGroup
}

// NewScheduler creates a Scheduler. Non-positive delays use the defaults.
func NewScheduler(handler Handler, debounce, deleteDelay time.Duration) *Scheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if deleteDelay <= 0 {
		deleteDelay = DefaultDeleteDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		handler:     handler,
		debounce:    debounce,
		deleteDelay: deleteDelay,
		ctx:         ctx,
		cancel:      cancel,
		pending:     make(map[string]*deleteTask),
		debounces:   make(map[*time.Timer]struct{}),
	}
}

// Touch records a create or modify signal for path.
func (s *Scheduler) Touch(path string) {
	s.CancelDelete(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	s.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(s.debounce, func() {
		defer s.wg.Done()

		s.mu.Lock()
		_, live := s.debounces[timer]
		delete(s.debounces, timer)
		s.mu.Unlock()
		if !live {
			return
		}

		if _, err := os.Stat(path); err != nil {
			logging.Debugf("debounce: %s gone before processing", path)
			return
		}
		s.handler.Process(s.ctx, path)
	})
	s.debounces[timer] = struct{}{}
}

// ScheduleDelete records a delete signal for path. A delete already pending
// for the path is replaced so the delay counts from the latest signal.
func (s *Scheduler) ScheduleDelete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if old, ok := s.pending[path]; ok {
		if old.state.CompareAndSwap(taskPending, taskCancelled) && old.timer.Stop() {
			s.wg.Done()
		}
	}

	task := &deleteTask{path: path}
	s.wg.Add(1)
	task.timer = time.AfterFunc(s.deleteDelay, func() {
		defer s.wg.Done()
		s.fireDelete(task)
	})
	s.pending[path] = task
}

// CancelDelete cancels a pending delete for path. Returns true if a pending
// delete was cancelled before it started running.
func (s *Scheduler) CancelDelete(path string) bool {
	s.mu.Lock()
	task, ok := s.pending[path]
	if ok {
		delete(s.pending, path)
	}
	s.mu.Unlock()

	if !ok || !task.state.CompareAndSwap(taskPending, taskCancelled) {
		return false
	}
	if task.timer.Stop() {
		s.wg.Done()
	}
	logging.Debugf("delete of %s cancelled by recreate", path)
	return true
}

// PendingDeletes returns the paths with a delete awaiting confirmation.
func (s *Scheduler) PendingDeletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.pending))
	for p := range s.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Stop cancels every scheduled action and waits for running ones to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true

	for timer := range s.debounces {
		if timer.Stop() {
			s.wg.Done()
		}
	}
	s.debounces = make(map[*time.Timer]struct{})

	for path, task := range s.pending {
		if task.state.CompareAndSwap(taskPending, taskCancelled) && task.timer.Stop() {
			s.wg.Done()
		}
		delete(s.pending, path)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// fireDelete runs when a delete delay elapses.
func (s *Scheduler) fireDelete(task *deleteTask) {
	if !task.state.CompareAndSwap(taskPending, taskFired) {
		return
	}

	s.mu.Lock()
	if s.pending[task.path] == task {
		delete(s.pending, task.path)
	}
	s.mu.Unlock()

	if _, err := os.Stat(task.path); err == nil {
		logging.Debugf("delete of %s skipped: path exists again", task.path)
		return
	}

	err := s.handler.ConfirmDelete(s.ctx, task.path)
	switch {
	case err == nil:
	case errors.Is(err, indexer.ErrInFlight):
		// The path is mid-processing; try again after another delay.
		s.ScheduleDelete(task.path)
	default:
		log.Printf("Warning: failed to confirm delete of %s: %v", task.path, err)
	}
}
