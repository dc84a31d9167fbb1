package embed

import "context"

// Embedder converts texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider defines the interface for embedding text into vectors.
// Implementations may call a remote service, cache another provider, or
// generate deterministic vectors for tests.
type Provider interface {
	Embedder

	// Initialize prepares the provider and blocks until ready.
	// Must be called before Embed().
	Initialize(ctx context.Context) error

	// Dimensions returns the dimensionality of the embedding vectors produced by this provider.
	Dimensions() int

	// Close releases any resources held by the provider.
	Close() error
}
