package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mvp-joe/docwatch/internal/diff"
	"github.com/mvp-joe/docwatch/internal/embed"
	"github.com/mvp-joe/docwatch/internal/logging"
	"github.com/mvp-joe/docwatch/internal/state"
)

// ErrTooLarge is reported in logs when a file exceeds the size ceiling.
var ErrTooLarge = errors.New("file exceeds size ceiling")

// ProcessorConfig holds the tunables of the per-path pipeline.
type ProcessorConfig struct {
	// MaxFileSize is the size ceiling in bytes; larger files are skipped.
	MaxFileSize int64
	// MaxWords bounds each chunk.
	MaxWords int
	// SummaryChars bounds the summary attached to version records.
	SummaryChars int
	// EmbedBatchSize is the number of chunks embedded per provider call.
	EmbedBatchSize int
	// PayloadChars bounds the chunk text stored in chunk payloads.
	PayloadChars int
}

// DefaultProcessorConfig returns the defaults used by the agent.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		MaxFileSize:    10 * 1024 * 1024,
		MaxWords:       DefaultMaxWords,
		SummaryChars:   300,
		EmbedBatchSize: 32,
		PayloadChars:   300,
	}
}

// Deps are the collaborators the processor drives.
type Deps struct {
	Store     *state.Store
	Guard     *InFlightGuard
	Ignore    *IgnoreMatcher
	Extractor Extractor
	Embedder  embed.Embedder
	Chunks    ChunkStore
	Notifier  ChangeNotifier
	Versions  VersionRecorder
}

// Processor runs the hash → extract → classify → chunk → upload → state
// pipeline for one path at a time.
type Processor struct {
	cfg  ProcessorConfig
	deps Deps
}

// NewProcessor creates a Processor. A nil Guard or Ignore gets a fresh default.
func NewProcessor(cfg ProcessorConfig, deps Deps) (*Processor, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if deps.Extractor == nil || deps.Embedder == nil || deps.Chunks == nil {
		return nil, fmt.Errorf("extractor, embedder and chunk store are required")
	}
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}
	if deps.Versions == nil {
		deps.Versions = discardVersions{}
	}
	if deps.Guard == nil {
		deps.Guard = NewInFlightGuard()
	}
	if deps.Ignore == nil {
		m, err := NewIgnoreMatcher(DefaultTempPatterns)
		if err != nil {
			return nil, err
		}
		deps.Ignore = m
	}

	defaults := DefaultProcessorConfig()
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = defaults.MaxWords
	}
	if cfg.SummaryChars <= 0 {
		cfg.SummaryChars = defaults.SummaryChars
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = defaults.EmbedBatchSize
	}
	if cfg.PayloadChars <= 0 {
		cfg.PayloadChars = defaults.PayloadChars
	}

	return &Processor{cfg: cfg, deps: deps}, nil
}

// Guard returns the in-flight guard shared with other workers.
func (p *Processor) Guard() *InFlightGuard {
	return p.deps.Guard
}

// Store returns the state store.
func (p *Processor) Store() *state.Store {
	return p.deps.Store
}

// Ignored reports whether path matches a temporary-file pattern.
func (p *Processor) Ignored(path string) bool {
	return p.deps.Ignore.Match(path)
}

// TooLarge reports whether size exceeds the configured ceiling.
func (p *Processor) TooLarge(size int64) bool {
	return p.cfg.MaxFileSize > 0 && size > p.cfg.MaxFileSize
}

// ProcessFile runs the full pipeline for path. A path already in flight is
// skipped immediately. Returned errors are collaborator or persistence
// failures; in that case the previous record is left untouched so the next
// event or scan retries from scratch.
func (p *Processor) ProcessFile(ctx context.Context, path string) (ProcessResult, error) {
	res := ProcessResult{Path: path}
	err := p.deps.Guard.Do(path, func() error {
		var err error
		res, err = p.process(ctx, path)
		return err
	})
	if errors.Is(err, ErrInFlight) {
		res.Skipped = SkipInFlight
		return res, nil
	}
	return res, err
}

// process is ProcessFile with the guard held.
func (p *Processor) process(ctx context.Context, path string) (ProcessResult, error) {
	res := ProcessResult{Path: path}

	if p.Ignored(path) {
		res.Skipped = SkipIgnored
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		logging.Debugf("skip %s: %v", path, err)
		res.Skipped = SkipVanished
		return res, nil
	}
	if info.IsDir() {
		res.Skipped = SkipDirectory
		return res, nil
	}
	if !p.deps.Extractor.Supports(path) {
		res.Skipped = SkipNotIndexable
		return res, nil
	}
	if p.TooLarge(info.Size()) {
		logging.Debugf("skip %s: %v (%d bytes)", path, ErrTooLarge, info.Size())
		res.Skipped = SkipTooLarge
		return res, nil
	}

	// Hash and text come from the same read so they always describe the
	// same content.
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Debugf("skip %s: read failed: %v", path, err)
		res.Skipped = SkipVanished
		return res, nil
	}
	if p.TooLarge(int64(len(data))) {
		logging.Debugf("skip %s: %v (%d bytes)", path, ErrTooLarge, len(data))
		res.Skipped = SkipTooLarge
		return res, nil
	}
	hash := HashBytes(data)

	var prev *state.FileRecord
	if rec, ok := p.deps.Store.Get(path); ok {
		prev = &rec
	}

	res.Class = Classify(prev, hash)
	if res.Class == Unchanged {
		res.Version = prev.Version
		res.Skipped = SkipUnchanged
		return res, nil
	}

	text, ok, err := p.deps.Extractor.ExtractBytes(ctx, path, data)
	if err != nil {
		logging.Debugf("skip %s: extraction failed: %v", path, err)
		res.Skipped = SkipVanished
		return res, nil
	}
	if !ok || strings.TrimSpace(text) == "" {
		res.Skipped = SkipNotIndexable
		return res, nil
	}

	chunks := ChunkText(text, p.cfg.MaxWords)
	ids := ChunkIDs(hash, len(chunks))

	vectors, err := embed.EmbedInBatches(ctx, p.deps.Embedder, chunks, p.cfg.EmbedBatchSize)
	if err != nil {
		return res, fmt.Errorf("failed to embed %s: %w", path, err)
	}

	for i, chunk := range chunks {
		upload := ChunkUpload{
			ID:     ids[i],
			Vector: vectors[i],
			Payload: ChunkPayload{
				Path:       path,
				ChunkIndex: i,
				Text:       truncate(chunk, p.cfg.PayloadChars),
				Hash:       hash,
			},
		}
		if err := p.deps.Chunks.UpsertChunk(ctx, upload); err != nil {
			return res, fmt.Errorf("failed to upload chunk %d of %s: %w", i, path, err)
		}
	}

	oldText := ""
	if prev != nil {
		oldText = prev.Text
	}
	edits := diff.Compute(oldText, text)
	res.Version = NextVersion(prev, res.Class, len(edits) > 0)

	// Added always records an initial version; Modified only when text changed.
	if res.Class == Added || len(edits) > 0 {
		if err := p.recordVersion(ctx, path, res, hash, oldText, text, edits); err != nil {
			return res, err
		}
	}

	rec := state.FileRecord{
		Hash:     hash,
		ChunkIDs: ids,
		ModTime:  info.ModTime(),
		Size:     int64(len(data)),
		Text:     text,
		Version:  res.Version,
	}
	if err := p.deps.Store.Put(path, rec); err != nil {
		return res, fmt.Errorf("failed to persist state for %s: %w", path, err)
	}
	res.Chunks = len(chunks)

	if err := p.deps.Notifier.NotifyChange(ctx, path, res.Class.Status(), NodeFromInfo(path, info)); err != nil {
		log.Printf("Warning: change notification failed for %s: %v", path, err)
	}

	if prev != nil {
		p.removeStaleChunks(ctx, path, prev.ChunkIDs, ids)
	}

	logging.Debugf("%s %s (v%d, %d chunks)", res.Class, path, res.Version, res.Chunks)
	return res, nil
}

// recordVersion embeds a change summary and appends a version record.
func (p *Processor) recordVersion(ctx context.Context, path string, res ProcessResult, hash, oldText, newText string, edits []diff.Edit) error {
	summary := p.summarize(res.Class, newText, edits)

	var vector []float32
	if summary != "" {
		vectors, err := p.deps.Embedder.Embed(ctx, []string{summary})
		if err != nil {
			return fmt.Errorf("failed to embed summary of %s: %w", path, err)
		}
		if len(vectors) > 0 {
			vector = vectors[0]
		}
	}

	rec := VersionRecord{
		Path:       path,
		Version:    res.Version,
		Diff:       diff.Unified(oldText, newText),
		Summary:    summary,
		Embedding:  vector,
		Hash:       hash,
		ChangeType: res.Class.Status(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.deps.Versions.SaveVersion(ctx, rec); err != nil {
		return fmt.Errorf("failed to save version %d of %s: %w", res.Version, path, err)
	}
	return nil
}

// summarize builds the text describing a change. Added files are summarized
// by their leading text, modifications by their changed lines.
func (p *Processor) summarize(class Classification, text string, edits []diff.Edit) string {
	if class == Added {
		return truncate(strings.TrimSpace(text), p.cfg.SummaryChars)
	}

	lines := make([]string, 0, len(edits))
	for _, e := range edits {
		lines = append(lines, e.String())
	}
	return truncate(strings.Join(lines, "\n"), p.cfg.SummaryChars)
}

// removeStaleChunks deletes ids present in the previous record but not the new one.
func (p *Processor) removeStaleChunks(ctx context.Context, path string, oldIDs, newIDs []string) {
	keep := make(map[string]struct{}, len(newIDs))
	for _, id := range newIDs {
		keep[id] = struct{}{}
	}
	var stale []string
	for _, id := range oldIDs {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return
	}
	if err := p.deps.Chunks.DeleteChunks(ctx, stale); err != nil {
		log.Printf("Warning: failed to remove %d stale chunks for %s: %v", len(stale), path, err)
	}
}

// DeleteFile removes the record for path along with its chunks and sends a
// deleted notification. Returns false if there was nothing to delete.
// Chunk removal failure keeps the record so a later scan retries it.
func (p *Processor) DeleteFile(ctx context.Context, path string) (bool, error) {
	var deleted bool
	err := p.deps.Guard.Do(path, func() error {
		var err error
		deleted, err = p.deleteFile(ctx, path)
		return err
	})
	return deleted, err
}

// deleteFile is DeleteFile with the guard held.
func (p *Processor) deleteFile(ctx context.Context, path string) (bool, error) {
	rec, ok := p.deps.Store.Get(path)
	if !ok {
		return false, nil
	}

	if len(rec.ChunkIDs) > 0 {
		if err := p.deps.Chunks.DeleteChunks(ctx, rec.ChunkIDs); err != nil {
			return false, fmt.Errorf("failed to delete chunks for %s: %w", path, err)
		}
	}

	if err := p.deps.Store.Delete(path); err != nil {
		return false, fmt.Errorf("failed to remove state for %s: %w", path, err)
	}

	if err := p.deps.Notifier.NotifyChange(ctx, path, StatusDeleted, nil); err != nil {
		log.Printf("Warning: delete notification failed for %s: %v", path, err)
	}

	log.Printf("Deleted: %s (%d chunks)", path, len(rec.ChunkIDs))
	return true, nil
}

// ConfirmDeleted handles a confirmed deletion of path. When path has no record
// of its own it is treated as a removed directory and every record beneath it
// whose file is gone is deleted. Returns the number of records removed.
func (p *Processor) ConfirmDeleted(ctx context.Context, path string) (int, error) {
	if _, ok := p.deps.Store.Get(path); ok {
		deleted, err := p.DeleteFile(ctx, path)
		if deleted {
			return 1, err
		}
		return 0, err
	}

	var (
		count int
		errs  []error
	)
	for child := range p.deps.Store.Under(path) {
		if _, err := os.Stat(child); err == nil {
			continue
		}
		deleted, err := p.DeleteFile(ctx, child)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if deleted {
			count++
		}
	}
	return count, errors.Join(errs...)
}

// HashBytes returns the hex SHA-256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NodeFromInfo builds the notification node for a path.
func NodeFromInfo(path string, info os.FileInfo) *FileNode {
	nodeType := "file"
	if info.IsDir() {
		nodeType = "dir"
	}
	return &FileNode{
		Name:     filepath.Base(path),
		Path:     path,
		Type:     nodeType,
		Size:     info.Size(),
		Modified: info.ModTime(),
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// LogNotifier logs change notifications instead of sending them anywhere.
type LogNotifier struct{}

// NotifyChange implements ChangeNotifier.
func (LogNotifier) NotifyChange(_ context.Context, path string, status ChangeStatus, _ *FileNode) error {
	log.Printf("File %s: %s", status, path)
	return nil
}

type discardVersions struct{}

func (discardVersions) SaveVersion(context.Context, VersionRecord) error { return nil }
