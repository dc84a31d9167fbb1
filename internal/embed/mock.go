package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// mockProvider derives a unit vector from SHA-256 blocks of each text.
// Equal texts always embed equally. Used for offline runs and tests.
type mockProvider struct {
	dimensions int
}

// NewMockProvider creates a deterministic provider with the given dimensions.
func NewMockProvider(dimensions int) Provider {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &mockProvider{dimensions: dimensions}
}

func (p *mockProvider) Initialize(ctx context.Context) error { return nil }

func (p *mockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = mockVector(text, p.dimensions)
	}
	return vectors, nil
}

func (p *mockProvider) Dimensions() int { return p.dimensions }

func (p *mockProvider) Close() error { return nil }

// mockVector fills dims values from "<block>:<text>" digests, 8 values per
// digest, then scales the result to unit length.
func mockVector(text string, dims int) []float32 {
	vec := make([]float32, dims)
	var block [sha256.Size]byte
	var norm float64
	for i := range vec {
		if i%8 == 0 {
			block = sha256.Sum256(fmt.Appendf(nil, "%d:%s", i/8, text))
		}
		off := (i % 8) * 4
		v := float64(binary.BigEndian.Uint32(block[off:off+4]))/math.MaxUint32*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
