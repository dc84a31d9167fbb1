// Package agent wires the watcher daemon together. An Agent owns the state
// store, collaborators, scheduler, observer and root synchronizer, and is the
// only place their lifecycles are managed.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/mvp-joe/docwatch/internal/config"
	"github.com/mvp-joe/docwatch/internal/daemon"
	"github.com/mvp-joe/docwatch/internal/embed"
	"github.com/mvp-joe/docwatch/internal/extract"
	"github.com/mvp-joe/docwatch/internal/history"
	"github.com/mvp-joe/docwatch/internal/indexer"
	"github.com/mvp-joe/docwatch/internal/logging"
	"github.com/mvp-joe/docwatch/internal/remote"
	"github.com/mvp-joe/docwatch/internal/state"
	"github.com/mvp-joe/docwatch/internal/vectorstore"
	"github.com/mvp-joe/docwatch/internal/watcher"
)

// Agent is the top-level coordinator.
type Agent struct {
	cfg *config.Config

	lock     *daemon.SingletonLock
	store    *state.Store
	provider embed.Provider
	client   *remote.Client     // nil when offline
	vectors  *vectorstore.Store // nil unless vector.backend is local
	history  *history.Store     // nil unless history.backend is local

	processor   *indexer.Processor
	scanner     *indexer.Scanner
	scheduler   *watcher.Scheduler
	coordinator *watcher.Coordinator
	observer    *watcher.FSObserver
	roots       *watcher.RootSynchronizer

	mu          sync.Mutex
	runCtx      context.Context
	initialized bool
	stopping    bool

	scans     sync.WaitGroup
	closeOnce sync.Once
}

// New builds every component from cfg. Nothing is started; the state file
// is loaded and local backends are opened.
func New(cfg *config.Config) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.UsesRemote() && cfg.Offline() {
		return nil, config.ErrMissingServer
	}

	a := &Agent{cfg: cfg, runCtx: context.Background()}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	lock := daemon.NewSingletonLock(cfg.State.Path)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	a.lock = lock

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}
	a.store = store

	ignore, err := indexer.NewIgnoreMatcher(cfg.Indexing.TempPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid temp patterns: %w", err)
	}
	ignore.IgnorePath(cfg.State.Path)
	ignore.IgnorePath(lock.Path())
	if cfg.Log.File != "" {
		ignore.IgnorePath(cfg.Log.File)
		if err := ignore.IgnoreInDir(filepath.Dir(cfg.Log.File), logging.BackupPattern(cfg.Log.File)); err != nil {
			return nil, fmt.Errorf("invalid log file name: %w", err)
		}
	}

	provider, err := embed.NewProvider(cfg.ToEmbedConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	a.provider = provider

	if !cfg.Offline() {
		a.client = remote.New(cfg.Server.URL, cfg.Server.Timeout)
	}

	var chunks indexer.ChunkStore
	switch cfg.Vector.Backend {
	case config.BackendRemote:
		chunks = a.client
	default:
		vs, err := vectorstore.Open(cfg.Vector.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store: %w", err)
		}
		a.vectors = vs
		chunks = vs
		if cfg.Vector.Dir != "" {
			ignore.IgnorePath(cfg.Vector.Dir)
		}
	}

	var versions indexer.VersionRecorder
	switch cfg.History.Backend {
	case config.BackendRemote:
		versions = a.client
	default:
		hs, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.history = hs
		versions = hs
		ignore.IgnorePath(cfg.History.Path)
	}

	var notifier indexer.ChangeNotifier = indexer.LogNotifier{}
	if a.client != nil {
		notifier = a.client
	}

	processor, err := indexer.NewProcessor(cfg.ToProcessorConfig(), indexer.Deps{
		Store:     store,
		Guard:     indexer.NewInFlightGuard(),
		Ignore:    ignore,
		Extractor: extract.New(cfg.ToExtractConfig()),
		Embedder:  provider,
		Chunks:    chunks,
		Notifier:  notifier,
		Versions:  versions,
	})
	if err != nil {
		return nil, err
	}
	a.processor = processor

	scans := indexer.NewScanSet()
	a.scanner = indexer.NewScanner(processor, scans)
	a.scheduler = watcher.NewScheduler(watcher.NewPipelineHandler(processor), cfg.Watch.Debounce, cfg.Watch.DeleteDelay)
	a.coordinator = watcher.NewCoordinator(a.scheduler, scans, ignore)
	a.observer = watcher.NewFSObserver(a.coordinator.HandleEvent, ignore.Match)

	var source watcher.RootSource = watcher.StaticRoots(cfg.Watch.Roots)
	if cfg.Watch.RootSource == config.RootSourceRemote {
		source = a.client
	}
	a.roots = watcher.NewRootSynchronizer(source, a.observer, a.launchScan, cfg.Watch.PollInterval)

	ok = true
	return a, nil
}

// Store returns the state store.
func (a *Agent) Store() *state.Store {
	return a.store
}

// Roots returns the roots currently watched.
func (a *Agent) Roots() []string {
	return a.roots.Roots()
}

// Run waits for the remote service when one is used, then keeps the watch
// set synchronized and processes events until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	if a.client != nil && a.cfg.UsesRemote() {
		log.Printf("Waiting for server at %s", a.client.BaseURL())
		if err := a.client.WaitReady(ctx, a.cfg.Server.WaitTimeout); err != nil {
			return err
		}
	}

	if err := a.initialize(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.runCtx = ctx
	a.mu.Unlock()

	if a.cfg.Watch.RootSource == config.RootSourceStatic && len(a.cfg.Watch.Roots) == 0 {
		log.Printf("Warning: no watch roots configured (set watch.roots)")
	}

	err := a.roots.Run(ctx)

	a.shutdown()
	return err
}

// ScanOnce runs a full scan of each root in turn without watching.
// Returns the stats of every root scanned, plus the joined scan errors.
func (a *Agent) ScanOnce(ctx context.Context, roots []string, progress indexer.ScanProgress) ([]*indexer.ScanStats, error) {
	if err := a.initialize(ctx); err != nil {
		return nil, err
	}

	var (
		all  []*indexer.ScanStats
		errs []error
	)
	for _, root := range watcher.NormalizeRoots(roots) {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		stats, err := a.scanRoot(ctx, root, progress)
		if stats != nil {
			all = append(all, stats)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return all, errors.Join(errs...)
}

// Close stops everything and releases backends. Safe to call more than once.
func (a *Agent) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.shutdown()
		err = a.closeResources()
	})
	return err
}

// initialize prepares the embedding provider once.
func (a *Agent) initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}
	if err := a.provider.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	a.initialized = true
	return nil
}

// launchScan is the root synchronizer's callback for newly added roots.
func (a *Agent) launchScan(root string) {
	a.mu.Lock()
	if a.stopping {
		a.mu.Unlock()
		return
	}
	ctx := a.runCtx
	a.scans.Add(1)
	a.mu.Unlock()
	defer a.scans.Done()

	if _, err := a.scanRoot(ctx, root, nil); err != nil {
		log.Printf("Warning: scan of %s failed: %v", root, err)
	}
}

// scanRoot scans root and re-submits events deferred while it ran.
func (a *Agent) scanRoot(ctx context.Context, root string, progress indexer.ScanProgress) (*indexer.ScanStats, error) {
	stats, err := a.scanner.ScanRoot(ctx, filepath.Clean(root), progress)
	if stats != nil && ctx.Err() == nil {
		a.coordinator.Resubmit(stats.Deferred)
	}
	return stats, err
}

// shutdown stops event sources first, then pending actions, then waits for
// scans still running.
func (a *Agent) shutdown() {
	a.mu.Lock()
	a.stopping = true
	a.mu.Unlock()

	if err := a.observer.Stop(); err != nil {
		log.Printf("Warning: failed to stop observer: %v", err)
	}
	a.scheduler.Stop()
	a.scans.Wait()
}

func (a *Agent) closeResources() error {
	var errs []error
	if a.provider != nil {
		errs = append(errs, a.provider.Close())
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	if a.lock != nil {
		errs = append(errs, a.lock.Release())
	}
	return errors.Join(errs...)
}
