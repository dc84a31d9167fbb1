package indexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Chunker:
// - Splits on whitespace into groups of at most maxWords
// - Final chunk holds the remainder
// - Concatenating chunks reproduces the whitespace-normalized text
// - Empty and whitespace-only text yields no chunks
// - Chunk ids are stable for identical hash and index, distinct otherwise

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w" + strings.Repeat("x", i%5)
	}
	return strings.Join(w, " ")
}

func TestChunkText_SplitsByWordCount(t *testing.T) {
	t.Parallel()

	text := words(1000)
	chunks := ChunkText(text, 400)
	require.Len(t, chunks, 3)

	assert.Len(t, strings.Fields(chunks[0]), 400)
	assert.Len(t, strings.Fields(chunks[1]), 400)
	assert.Len(t, strings.Fields(chunks[2]), 200)

	assert.Equal(t, text, strings.Join(chunks, " "))
}

func TestChunkText_NormalizesWhitespace(t *testing.T) {
	t.Parallel()

	chunks := ChunkText("  alpha\tbeta\n\ngamma  delta ", 3)
	assert.Equal(t, []string{"alpha beta gamma", "delta"}, chunks)
}

func TestChunkText_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ChunkText("", 400))
	assert.Empty(t, ChunkText(" \n\t ", 400))
}

func TestChunkText_DefaultMaxWords(t *testing.T) {
	t.Parallel()

	chunks := ChunkText(words(DefaultMaxWords+1), 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, "w", chunks[1])
}

func TestChunkID_Stable(t *testing.T) {
	t.Parallel()

	hash := "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	assert.Equal(t, ChunkID(hash, 0), ChunkID(hash, 0))
	assert.NotEqual(t, ChunkID(hash, 0), ChunkID(hash, 1))
	assert.NotEqual(t, ChunkID(hash, 0), ChunkID("other", 0))

	ids := ChunkIDs(hash, 3)
	require.Len(t, ids, 3)
	assert.Equal(t, ChunkID(hash, 2), ids[2])
	// UUID text form
	assert.Len(t, ids[0], 36)
}
