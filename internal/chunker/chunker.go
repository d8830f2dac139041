package chunker

import "fmt"

// Default chunking parameters.
const (
	DefaultSize    = 1000
	DefaultOverlap = 100
)

// Chunker splits text into fixed-size overlapping segments. The split is a
// plain character-offset operation; chunks are not required to end on word
// boundaries.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. A configuration where overlap >= size would never
// advance the cursor, so it is rejected here instead of looping forever.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split cuts text into chunks of at most c.size characters, each starting
// c.size-c.overlap after the previous one. Offsets count runes, not bytes,
// so multi-byte content is never cut mid-character. Empty input yields no
// chunks; a trailing chunk shorter than the chunk size is expected.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	var chunks []string
	stride := c.size - c.overlap

	for cursor := 0; cursor < len(runes); cursor += stride {
		end := cursor + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[cursor:end]))
	}

	return chunks
}
