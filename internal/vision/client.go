package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ImageAnalysisError wraps a failed image-description call. Callers treat it
// as non-fatal and index the post's own text alone.
type ImageAnalysisError struct {
	ImageURL string
	Err      error
}

func (e *ImageAnalysisError) Error() string {
	return fmt.Sprintf("image analysis failed for %s: %v", e.ImageURL, e.Err)
}

func (e *ImageAnalysisError) Unwrap() error { return e.Err }

// describePrompt asks for text suitable for semantic indexing rather than
// captioning.
const describePrompt = "Describe the content of this image in two or three factual sentences " +
	"so the description can be indexed for search. Mention any visible text verbatim."

// Config holds vision client configuration.
type Config struct {
	BaseURL string // chat completions endpoint base, e.g. "http://localhost:11435"
	APIKey  string // optional bearer token
	Model   string // multimodal model name
}

// Client wraps the generative service's chat completions API for image
// description.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// New creates a new vision client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		model:      config.Model,
	}, nil
}

// chatRequest is the request payload for the chat completions API. Content
// is a mixed array of text and image_url parts.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

// chatResponse is the response from the chat completions API.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Describe asks the model for a textual description of the image at imageURL.
// Failures come back as *ImageAnalysisError.
func (c *Client) Describe(ctx context.Context, imageURL string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: describePrompt},
					{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
				},
			},
		},
		MaxTokens: 256,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", &ImageAnalysisError{ImageURL: imageURL, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ImageAnalysisError{ImageURL: imageURL, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &ImageAnalysisError{ImageURL: imageURL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ImageAnalysisError{ImageURL: imageURL, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ImageAnalysisError{
			ImageURL: imageURL,
			Err:      fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody)),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &ImageAnalysisError{ImageURL: imageURL, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if chatResp.Error != nil {
		return "", &ImageAnalysisError{ImageURL: imageURL, Err: fmt.Errorf("API error: %s", chatResp.Error.Message)}
	}

	if len(chatResp.Choices) == 0 {
		return "", &ImageAnalysisError{ImageURL: imageURL, Err: fmt.Errorf("no response returned")}
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
