package normalize

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

// ValidationError means the source descriptor carried nothing ingestable.
// It aborts ingestion before any work happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid source: " + e.Reason
}

// FetchError means a webpage could not be retrieved. Unlike image-analysis
// failures there is no fallback: ingestion for the source aborts.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Describer produces a textual description of an image, used for
// image-bearing social posts.
type Describer interface {
	Describe(ctx context.Context, imageURL string) (string, error)
}

// Content is the normalized form of a source: plain text plus provenance.
// Raw carries the fetched HTML for webpages so it can be archived.
type Content struct {
	Text  string
	Title string
	Raw   []byte
}

// Config holds normalizer configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Normalizer converts a source descriptor into plain indexable text.
type Normalizer struct {
	httpClient *http.Client
	userAgent  string
	describer  Describer // nil disables image description
}

// New creates a Normalizer. describer may be nil, in which case image-bearing
// posts are indexed on their text alone.
func New(config Config, describer Describer) *Normalizer {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "bethel-ingest/1.0"
	}
	return &Normalizer{
		httpClient: &http.Client{Timeout: config.Timeout},
		userAgent:  config.UserAgent,
		describer:  describer,
	}
}

// Normalize turns a source into plain text and a title. A nil Content with a
// nil error means the source has nothing to index and should be skipped.
func (n *Normalizer) Normalize(ctx context.Context, src models.Source) (*Content, error) {
	if src.Type == models.DocTypeSocialPost && src.Post != nil {
		return n.normalizePost(ctx, src)
	}

	// Manually supplied text passes through unchanged.
	if src.Text != "" {
		title := src.Title
		if title == "" {
			title = src.URL
		}
		return &Content{Text: src.Text, Title: title}, nil
	}

	if src.URL != "" {
		return n.fetchWebpage(ctx, src)
	}

	return nil, &ValidationError{Reason: "no text or URL supplied"}
}
