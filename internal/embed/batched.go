package embed

import (
	"context"
	"fmt"
)

// EmbedInBatches embeds texts with at most batchSize texts per Embed call.
// Vectors come back in input order. The first failing batch fails the call.
func EmbedInBatches(ctx context.Context, embedder Embedder, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 || batchSize > len(texts) {
		batchSize = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+batchSize, len(texts))
		batch, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d of %d: %w", start+1, end, len(texts), err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("chunks %d-%d: expected %d embeddings, got %d", start+1, end, end-start, len(batch))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
