package indexer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxWords is the chunk size used when none is configured.
const DefaultMaxWords = 400

// chunkNamespace scopes chunk ids so they stay stable across runs and hosts.
var chunkNamespace = uuid.MustParse("20b57fa4-ec8b-4ce0-b0d5-7b56a25385db")

// ChunkText splits text into chunks of at most maxWords whitespace-delimited
// words, in document order. Words inside a chunk are joined by a single space.
// The final chunk may be shorter than maxWords.
func ChunkText(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ChunkID derives the stable identifier for chunk index i of content with the
// given hash. Re-processing identical content reproduces identical ids.
func ChunkID(hash string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s_%d", hash, index))).String()
}

// ChunkIDs returns the ids for n chunks of content with the given hash.
func ChunkIDs(hash string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = ChunkID(hash, i)
	}
	return ids
}
