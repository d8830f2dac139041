package models

import (
	"time"

	"github.com/google/uuid"
)

// Document types stored in the chunk index.
const (
	DocTypeWebpage    = "webpage"
	DocTypeSocialPost = "social_post"
)

// ChunkRecord is the atomic indexed unit: one embedded segment of a source's
// text. The JSON tags define the document shape in the chunk index.
type ChunkRecord struct {
	ID             string            `json:"id"`
	DocType        string            `json:"doc_type"`
	Title          string            `json:"title"`
	URL            string            `json:"url,omitempty"`
	Text           string            `json:"text"`
	Embedding      []float32         `json:"embedding,omitempty"`
	ChunkIndex     int               `json:"chunk_index"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	OriginalPostID string            `json:"original_post_id,omitempty"`
}

// PostChunkID derives the deterministic chunk id for a social post so that
// re-ingesting the same post overwrites its record instead of growing the
// index.
func PostChunkID(postID string) string {
	return "post_" + postID
}

// NewChunkID returns a fresh random chunk id for non-post sources.
func NewChunkID() string {
	return uuid.NewString()
}
