package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// EmbeddingError is the uniform failure raised by the adapter. The raw
// service response is serialized into Raw so an unrecognized shape can be
// diagnosed from logs without replaying the call.
type EmbeddingError struct {
	Raw string
	Err error
}

func (e *EmbeddingError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("embedding failed: %v (response: %s)", e.Err, e.Raw)
	}
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Config holds embedding client configuration.
type Config struct {
	BaseURL string // e.g. "http://localhost:11435"
	APIKey  string // optional bearer token
	Model   string // model name
}

// Client wraps the external embedding service. All embedding calls in the
// engine pass through here, so response-shape normalization lives in exactly
// one place.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// New creates a new embeddings client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		model:      config.Model,
	}, nil
}

// embeddingRequest is the request payload for the embeddings API.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embeddingEnvelope is the loose response envelope. Data is kept raw because
// the service returns it in several shapes (see decodeVector).
type embeddingEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// MaxInputChars limits input to stay within the embedding model's context
// window. Chunk sizes are far below this; it guards direct callers.
const MaxInputChars = 20000

// Embed generates an embedding vector for the given text. Any failure is
// returned as an *EmbeddingError.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > MaxInputChars {
		slog.Debug("truncating embedding input", "original_len", len(text), "max", MaxInputChars)
		text = text[:MaxInputChars]
	}

	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &EmbeddingError{
			Raw: string(respBody),
			Err: fmt.Errorf("API error (status %d)", resp.StatusCode),
		}
	}

	var envelope embeddingEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &EmbeddingError{Raw: string(respBody), Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if envelope.Error != nil {
		return nil, &EmbeddingError{Raw: string(respBody), Err: fmt.Errorf("API error: %s", envelope.Error.Message)}
	}

	raw := envelope.Data
	if len(raw) == 0 {
		// Some deployments return the result at the top level.
		raw = respBody
	}

	vec, err := decodeVector(raw)
	if err != nil {
		return nil, &EmbeddingError{Raw: string(respBody), Err: err}
	}
	return vec, nil
}

// decodeVector normalizes the service's result into a single vector. The
// client library behind the service emits one of three shapes:
//
//	[0.1, 0.2, ...]                   bare vector
//	[[0.1, 0.2, ...]]                 list wrapping a vector
//	[{"embedding": [0.1, 0.2, ...]}]  list of objects
func decodeVector(raw json.RawMessage) ([]float32, error) {
	var bare []float32
	if err := json.Unmarshal(raw, &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}

	var wrapped [][]float32
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped) > 0 && len(wrapped[0]) > 0 {
		return wrapped[0], nil
	}

	var objects []struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(raw, &objects); err == nil && len(objects) > 0 && len(objects[0].Embedding) > 0 {
		return objects[0].Embedding, nil
	}

	return nil, fmt.Errorf("unrecognized embedding response shape")
}
