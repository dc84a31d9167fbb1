// Package remote talks to the indexing server: chunk upserts and deletes,
// change notifications, version records and the watch-root authority.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mvp-joe/docwatch/internal/indexer"
)

// ErrServerNotReady is returned by WaitReady when the server never answers
// its health check in time.
var ErrServerNotReady = errors.New("server not ready")

// healthPollInterval is the delay between health probes.
const healthPollInterval = 500 * time.Millisecond

// Endpoint paths.
const (
	pathHealth      = "/api/health"
	pathWatchPaths  = "/api/watch-paths"
	pathUpsertChunk = "/api/chunks/upsert"
	pathDelete      = "/api/delete"
	pathFileChange  = "/api/file-change"
	pathSaveVersion = "/api/save-file-version"
)

// Client is an HTTP client for the indexing server. It implements
// indexer.ChunkStore, indexer.ChangeNotifier, indexer.VersionRecorder and
// watcher.RootSource.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for baseURL (e.g. "http://localhost:8000").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Healthy reports whether a single health probe succeeds.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathHealth, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// WaitReady polls the health endpoint until it answers 200 or timeout elapses.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	for {
		if c.Healthy(ctx) {
			log.Printf("✓ Server ready at %s", c.baseURL)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrServerNotReady, c.baseURL)
		case <-ticker.C:
		}
	}
}

// FetchWatchRoots returns the server's desired watch roots. Both a bare JSON
// array of paths and {"paths": [...]} are accepted.
func (c *Client) FetchWatchRoots(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathWatchPaths, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watch paths request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read watch paths: %w", err)
	}
	return decodeRoots(raw)
}

func decodeRoots(raw []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Paths []string `json:"paths"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode watch paths: %w", err)
	}
	return wrapped.Paths, nil
}

// UpsertChunk implements indexer.ChunkStore.
func (c *Client) UpsertChunk(ctx context.Context, chunk indexer.ChunkUpload) error {
	return c.post(ctx, pathUpsertChunk, chunk)
}

// DeleteChunks implements indexer.ChunkStore. The body is a bare JSON array of ids.
func (c *Client) DeleteChunks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.post(ctx, pathDelete, ids)
}

// fileChange is the /api/file-change payload. Times are Unix seconds.
type fileChange struct {
	Path      string    `json:"path"`
	Status    string    `json:"status"`
	Timestamp float64   `json:"timestamp"`
	Node      *wireNode `json:"node,omitempty"`
}

type wireNode struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Type     string  `json:"type"`
	Size     int64   `json:"size"`
	Modified float64 `json:"modified"`
}

// NotifyChange implements indexer.ChangeNotifier.
func (c *Client) NotifyChange(ctx context.Context, path string, status indexer.ChangeStatus, node *indexer.FileNode) error {
	payload := fileChange{
		Path:      path,
		Status:    string(status),
		Timestamp: unixSeconds(time.Now()),
	}
	if node != nil && status != indexer.StatusDeleted {
		payload.Node = &wireNode{
			Name:     node.Name,
			Path:     node.Path,
			Type:     node.Type,
			Size:     node.Size,
			Modified: unixSeconds(node.Modified),
		}
	}
	return c.post(ctx, pathFileChange, payload)
}

// SaveVersion implements indexer.VersionRecorder.
func (c *Client) SaveVersion(ctx context.Context, rec indexer.VersionRecord) error {
	return c.post(ctx, pathSaveVersion, rec)
}

// post sends body as JSON and checks for a 2xx response.
func (c *Client) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}
