package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpProvider calls a JSON embedding endpoint:
//
//	POST {endpoint} {"texts": [...]}  ->  {"embeddings": [[...], ...]}
type httpProvider struct {
	endpoint   string
	dimensions int
	client     *http.Client
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// newHTTPProvider creates a provider for the given endpoint.
func newHTTPProvider(endpoint string, dimensions int, timeout time.Duration) *httpProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpProvider{
		endpoint:   endpoint,
		dimensions: dimensions,
		client:     &http.Client{Timeout: timeout},
	}
}

// Initialize probes the endpoint once and learns the vector dimensions.
func (p *httpProvider) Initialize(ctx context.Context) error {
	vectors, err := p.Embed(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("embedding endpoint not ready: %w", err)
	}
	if len(vectors) == 1 && len(vectors[0]) > 0 {
		p.dimensions = len(vectors[0])
	}
	return nil
}

// Embed sends texts to the endpoint in a single request.
func (p *httpProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed request failed: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Embeddings))
	}
	return out.Embeddings, nil
}

// Dimensions returns the configured or probed vector size.
func (p *httpProvider) Dimensions() int {
	return p.dimensions
}

// Close releases idle connections.
func (p *httpProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
