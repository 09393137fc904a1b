package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// HTTPEmbedder calls a remote embedding service over HTTP.
// The service exposes POST {base}/embed accepting {"model","texts"} and
// returning {"embeddings":[[...]]}, plus GET {base}/health for liveness.
type HTTPEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	retry      RetryConfig

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*HTTPEmbedder)(nil)

// HTTPOption configures an HTTPEmbedder.
type HTTPOption func(*HTTPEmbedder)

// WithModel sets the model identifier sent to the service.
func WithModel(model string) HTTPOption {
	return func(e *HTTPEmbedder) {
		e.model = model
	}
}

// WithDimensions sets the expected embedding dimension.
func WithDimensions(dims int) HTTPOption {
	return func(e *HTTPEmbedder) {
		e.dimensions = dims
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(e *HTTPEmbedder) {
		e.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client (used in tests).
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(e *HTTPEmbedder) {
		e.client = client
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg RetryConfig) HTTPOption {
	return func(e *HTTPEmbedder) {
		e.retry = cfg
	}
}

// NewHTTPEmbedder creates an embedder backed by the service at baseURL.
func NewHTTPEmbedder(baseURL string, opts ...HTTPOption) *HTTPEmbedder {
	e := &HTTPEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      "all-MiniLM-L6-v2",
		dimensions: DefaultDimensions,
		client:     &http.Client{Timeout: DefaultRequestTimeout},
		retry:      DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embedRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates embedding for a single text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// EmbedBatch generates embeddings for multiple texts in a single request.
// Every failure mode is reported as ErrUnavailable so callers can fall
// back to lexical ranking without inspecting the cause.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds maximum %d", len(texts), MaxBatchSize)
	}

	var embeddings [][]float32
	err := CallWithRetry(ctx, e.retry, func() error {
		var callErr error
		embeddings, callErr = e.embedOnce(ctx, texts)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (e *HTTPEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(snippet))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrUnavailable, len(parsed.Embeddings), len(texts))
	}
	for i, vec := range parsed.Embeddings {
		if len(vec) != e.dimensions {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, want %d",
				ErrUnavailable, i, len(vec), e.dimensions)
		}
	}

	return parsed.Embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the model identifier.
func (e *HTTPEmbedder) ModelName() string {
	return e.model
}

// Available checks the service health endpoint.
func (e *HTTPEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Close releases resources.
func (e *HTTPEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.client.CloseIdleConnections()
	return nil
}
