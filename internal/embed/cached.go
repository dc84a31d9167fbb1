package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"
)

// CachedProvider memoizes vectors by text so re-processing a file whose
// chunks did not change skips the embedding call for those chunks.
type CachedProvider struct {
	inner Provider
	cache otter.Cache[string, []float32]
}

// NewCachedProvider wraps inner with a bounded cache of capacity entries.
func NewCachedProvider(inner Provider, capacity int) (*CachedProvider, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}

	cache, err := otter.MustBuilder[string, []float32](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding cache: %w", err)
	}

	return &CachedProvider{inner: inner, cache: cache}, nil
}

// Initialize initializes the wrapped provider.
func (p *CachedProvider) Initialize(ctx context.Context) error {
	return p.inner.Initialize(ctx)
}

// Embed returns cached vectors where available and embeds only the misses,
// preserving input order.
func (p *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = cacheKey(text)
		if vec, ok := p.cache.Get(keys[i]); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := p.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missTexts), len(vectors))
	}

	for j, i := range missIdx {
		results[i] = vectors[j]
		p.cache.Set(keys[i], vectors[j])
	}
	return results, nil
}

// Dimensions returns the wrapped provider's dimensions.
func (p *CachedProvider) Dimensions() int {
	return p.inner.Dimensions()
}

// Stats returns cache hit and miss counts.
func (p *CachedProvider) Stats() (hits, misses int64) {
	s := p.cache.Stats()
	return s.Hits(), s.Misses()
}

// Close closes the cache and the wrapped provider.
func (p *CachedProvider) Close() error {
	p.cache.Close()
	return p.inner.Close()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
