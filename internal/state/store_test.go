package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	_, ok := s.Get("/nowhere")
	assert.False(t, ok)
}

func TestOpen_EmptyFileIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestOpen_LegacyLayoutRejected(t *testing.T) {
	t.Parallel()

	// Setup: "chunks" key and a float mtime, as older agents wrote it
	path := filepath.Join(t.TempDir(), ".local_index_state.json")
	legacy := `{"/docs/a.txt": {"hash": "abc", "chunks": ["id-1"], "mtime": 1718000000.25, "text": "hi", "version": 1}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	// Execute
	_, err := Open(path)

	// Verify
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpen_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestStore_PutPersistsFullMap(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := Open(path)
	require.NoError(t, err)

	rec := FileRecord{
		Hash:     "abc",
		ChunkIDs: []string{"c1", "c2"},
		ModTime:  time.Unix(1700000000, 0).UTC(),
		Size:     42,
		Text:     "hello world",
		Version:  1,
	}
	require.NoError(t, s.Put("/root/a.txt", rec))
	require.NoError(t, s.Put("/root/b.txt", FileRecord{Hash: "def", Version: 3}))

	// File on disk is a flat keyed JSON object.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 2)
	assert.Equal(t, "abc", raw["/root/a.txt"]["hash"])

	// Reopen sees the same state.
	reopened, err := Open(path)
	require.NoError(t, err)
	got, ok := reopened.Get("/root/a.txt")
	require.True(t, ok)
	assert.Equal(t, rec.Hash, got.Hash)
	assert.Equal(t, rec.ChunkIDs, got.ChunkIDs)
	assert.Equal(t, rec.Text, got.Text)
	assert.True(t, rec.ModTime.Equal(got.ModTime))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestStore_UpdateReadModifyWrite(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	require.NoError(t, s.Put("/p", FileRecord{Hash: "h1", Version: 1}))

	err = s.Update("/p", func(rec FileRecord, exists bool) (FileRecord, bool) {
		require.True(t, exists)
		rec.Version++
		rec.Hash = "h2"
		return rec, true
	})
	require.NoError(t, err)

	got, ok := s.Get("/p")
	require.True(t, ok)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "h2", got.Hash)
}

func TestStore_DeleteMissingPathIsNoop(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Delete("/never/seen"))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no-op delete should not write a file")
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	require.NoError(t, s.Put("/p", FileRecord{ChunkIDs: []string{"a"}}))

	got, _ := s.Get("/p")
	got.ChunkIDs[0] = "mutated"

	again, _ := s.Get("/p")
	assert.Equal(t, "a", again.ChunkIDs[0])
}

func TestStore_Under(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	require.NoError(t, s.Save(map[string]FileRecord{
		"/r/a.txt":     {Hash: "a"},
		"/r/sub/b.txt": {Hash: "b"},
		"/rx/c.txt":    {Hash: "c"},
		"/other/d.txt": {Hash: "d"},
	}))

	under := s.Under("/r")
	assert.Len(t, under, 2)
	assert.Contains(t, under, "/r/a.txt")
	assert.Contains(t, under, "/r/sub/b.txt")
	assert.NotContains(t, under, "/rx/c.txt")
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update("/counter", func(rec FileRecord, _ bool) (FileRecord, bool) {
				rec.Version++
				return rec, true
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, ok := s.Get("/counter")
	require.True(t, ok)
	assert.Equal(t, 20, got.Version)
}

func TestIsUnder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, root string
		want       bool
	}{
		{"/a/b/c", "/a", true},
		{"/a", "/a", true},
		{"/a/", "/a", true},
		{"/ab/c", "/a", false},
		{"/b/c", "/a", false},
		{"/a/b", "/a/", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUnder(tt.path, tt.root), "IsUnder(%q, %q)", tt.path, tt.root)
	}
}
