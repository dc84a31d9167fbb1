package embed

import (
	"fmt"
	"time"
)

// DefaultDimensions is the vector size of the default sentence model.
const DefaultDimensions = 384

// Config contains configuration for creating an embedding provider.
type Config struct {
	// Provider specifies which embedding provider to use ("http" or "mock")
	Provider string

	// Endpoint is the URL of the embedding service (http provider)
	Endpoint string

	// Dimensions is the expected vector size
	Dimensions int

	// Timeout bounds a single embedding request
	Timeout time.Duration

	// CacheSize enables an in-memory vector cache when positive
	CacheSize int
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(config Config) (Provider, error) {
	var provider Provider

	switch config.Provider {
	case "http", "":
		if config.Endpoint == "" {
			return nil, fmt.Errorf("http embedding provider requires an endpoint")
		}
		provider = newHTTPProvider(config.Endpoint, config.Dimensions, config.Timeout)
	case "mock":
		provider = NewMockProvider(config.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: http, mock)", config.Provider)
	}

	if config.CacheSize > 0 {
		cached, err := NewCachedProvider(provider, config.CacheSize)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return provider, nil
}
