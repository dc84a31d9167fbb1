package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mvp-joe/docwatch/internal/embed"
	"github.com/mvp-joe/docwatch/internal/state"
	"github.com/stretchr/testify/require"
)

// fileExtractor returns raw file contents as text. Files ending in .bin
// are unsupported.
type fileExtractor struct {
	mu    sync.Mutex
	calls int
	// block, when set, is received from before extracting.
	block chan struct{}
	// during, when set, runs before extracting (e.g. to rewrite the file).
	during func(path string)
}

func (e *fileExtractor) Supports(path string) bool {
	return filepath.Ext(path) != ".bin"
}

func (e *fileExtractor) ExtractBytes(ctx context.Context, path string, data []byte) (string, bool, error) {
	e.mu.Lock()
	e.calls++
	block, during := e.block, e.during
	e.mu.Unlock()

	if block != nil {
		<-block
	}
	if during != nil {
		during(path)
	}
	return string(data), true, nil
}

func (e *fileExtractor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// memChunks is an in-memory ChunkStore with failure injection.
type memChunks struct {
	mu        sync.Mutex
	chunks    map[string]ChunkUpload
	upserts   int
	deletes   [][]string
	failAfter int // fail upserts once this many succeeded; <0 disables
	failDel   bool
}

func newMemChunks() *memChunks {
	return &memChunks{chunks: make(map[string]ChunkUpload), failAfter: -1}
}

func (m *memChunks) UpsertChunk(ctx context.Context, c ChunkUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && m.upserts >= m.failAfter {
		return errors.New("upload failed")
	}
	m.upserts++
	m.chunks[c.ID] = c
	return nil
}

func (m *memChunks) DeleteChunks(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel {
		return errors.New("delete failed")
	}
	m.deletes = append(m.deletes, append([]string(nil), ids...))
	for _, id := range ids {
		delete(m.chunks, id)
	}
	return nil
}

func (m *memChunks) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

func (m *memChunks) ids() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.chunks))
	for id := range m.chunks {
		out[id] = true
	}
	return out
}

type notification struct {
	Path   string
	Status ChangeStatus
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notification
}

func (n *recordingNotifier) NotifyChange(ctx context.Context, path string, status ChangeStatus, node *FileNode) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notification{Path: path, Status: status})
	return nil
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.items...)
}

type recordingVersions struct {
	mu      sync.Mutex
	records []VersionRecord
}

func (v *recordingVersions) SaveVersion(ctx context.Context, rec VersionRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = append(v.records, rec)
	return nil
}

func (v *recordingVersions) all(path string) []VersionRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []VersionRecord
	for _, r := range v.records {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (v *recordingVersions) versions(path string) []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []int
	for _, r := range v.records {
		if r.Path == path {
			out = append(out, r.Version)
		}
	}
	return out
}

type testEnv struct {
	dir       string
	store     *state.Store
	extractor *fileExtractor
	chunks    *memChunks
	notifier  *recordingNotifier
	versions  *recordingVersions
	processor *Processor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := state.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	env := &testEnv{
		dir:       dir,
		store:     store,
		extractor: &fileExtractor{},
		chunks:    newMemChunks(),
		notifier:  &recordingNotifier{},
		versions:  &recordingVersions{},
	}

	cfg := DefaultProcessorConfig()
	cfg.MaxFileSize = 1024 * 1024
	env.processor, err = NewProcessor(cfg, Deps{
		Store:     store,
		Extractor: env.extractor,
		Embedder:  embed.NewMockProvider(8),
		Chunks:    env.chunks,
		Notifier:  env.notifier,
		Versions:  env.versions,
	})
	require.NoError(t, err)
	return env
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
