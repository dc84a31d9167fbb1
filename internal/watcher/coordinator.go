package watcher

import (
	"context"
	"log"

	"github.com/mvp-joe/docwatch/internal/indexer"
	"github.com/mvp-joe/docwatch/internal/logging"
)

// Coordinator routes observer events into the scheduler, deferring live
// create/modify events for paths owned by an active scan.
type Coordinator struct {
	scheduler *Scheduler
	scans     *indexer.ScanSet
	ignore    *indexer.IgnoreMatcher
}

// NewCoordinator creates a new event coordinator.
func NewCoordinator(scheduler *Scheduler, scans *indexer.ScanSet, ignore *indexer.IgnoreMatcher) *Coordinator {
	if scans == nil {
		scans = indexer.NewScanSet()
	}
	return &Coordinator{
		scheduler: scheduler,
		scans:     scans,
		ignore:    ignore,
	}
}

// HandleEvent routes one observer event.
func (c *Coordinator) HandleEvent(ev Event) {
	if c.ignore.Match(ev.Path) {
		return
	}

	switch ev.Op {
	case OpDelete:
		// Deletes are never deferred; confirmation is idempotent.
		c.scheduler.ScheduleDelete(ev.Path)

	case OpCreate, OpModify:
		if c.scans.Defer(ev.Path) {
			// Resubmitted when the scan finishes. Cancel any pending delete now so a
			// delete+recreate during the scan does not confirm a stale delete.
			c.scheduler.CancelDelete(ev.Path)
			logging.Debugf("deferred %s %s: root is scanning", ev.Op, ev.Path)
			return
		}
		c.scheduler.Touch(ev.Path)
	}
}

// Resubmit touches paths whose events were deferred during a scan.
func (c *Coordinator) Resubmit(paths []string) {
	if len(paths) == 0 {
		return
	}
	log.Printf("Resubmitting %d deferred change(s)", len(paths))
	for _, p := range paths {
		c.scheduler.Touch(p)
	}
}

// pipelineHandler runs the indexer pipeline for scheduled actions.
type pipelineHandler struct {
	processor *indexer.Processor
}

// NewPipelineHandler adapts a Processor to the scheduler's Handler.
func NewPipelineHandler(processor *indexer.Processor) Handler {
	return &pipelineHandler{processor: processor}
}

// Process implements Handler.
func (h *pipelineHandler) Process(ctx context.Context, path string) {
	res, err := h.processor.ProcessFile(ctx, path)
	if err != nil {
		log.Printf("Error: indexing failed for %s: %v", path, err)
		return
	}
	if res.Changed() {
		log.Printf("✓ Indexed %s (%s, v%d, %d chunks)", path, res.Class, res.Version, res.Chunks)
	}
}

// ConfirmDelete implements Handler.
func (h *pipelineHandler) ConfirmDelete(ctx context.Context, path string) error {
	_, err := h.processor.ConfirmDeleted(ctx, path)
	return err
}
