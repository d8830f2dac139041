package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/systems2beyond/bethel-social-sub005/internal/chunker"
	"github.com/systems2beyond/bethel-social-sub005/internal/embeddings"
	"github.com/systems2beyond/bethel-social-sub005/internal/normalize"
	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

// Normalizer turns a raw source into clean indexable text.
type Normalizer interface {
	Normalize(ctx context.Context, src models.Source) (*normalize.Content, error)
}

// Embedder produces a vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Writer persists chunk records to the chunk store.
type Writer interface {
	ReplaceForURL(ctx context.Context, url string, chunks []models.ChunkRecord) error
	InsertChunks(ctx context.Context, chunks []models.ChunkRecord) error
	UpsertChunk(ctx context.Context, chunk models.ChunkRecord) error
}

// Archiver stores raw page snapshots. Optional; best-effort.
type Archiver interface {
	Store(ctx context.Context, pageURL string, raw []byte) error
}

// Result holds the outcome of ingesting a single source.
type Result struct {
	Chunks   int
	Duration time.Duration
}

// BatchResult holds the outcome of a batch ingestion run.
type BatchResult struct {
	Ingested int
	Chunks   int
	Duration time.Duration
	Errors   []string
}

// Engine orchestrates the normalize, chunk, embed, and index flow.
type Engine struct {
	normalizer Normalizer
	chunker    *chunker.Chunker
	embedder   Embedder
	writer     Writer
	archive    Archiver // nil if archiving disabled
}

// New creates a new ingestion engine.
func New(normalizer Normalizer, ch *chunker.Chunker, embedder Embedder, writer Writer, archive Archiver) *Engine {
	return &Engine{
		normalizer: normalizer,
		chunker:    ch,
		embedder:   embedder,
		writer:     writer,
		archive:    archive,
	}
}

// Ingest runs a single source through the full flow. Sources that normalize
// to nothing are skipped with a zero-chunk result. A failed fetch or an
// invalid source aborts with an error; a failed embedding drops only the
// affected chunk.
func (e *Engine) Ingest(ctx context.Context, src models.Source) (*Result, error) {
	start := time.Now()

	content, err := e.normalizer.Normalize(ctx, src)
	if err != nil {
		return nil, err
	}
	if content == nil {
		slog.Info("source has no indexable content, skipping", "type", src.Type, "url", src.URL)
		return &Result{Duration: time.Since(start)}, nil
	}

	if e.archive != nil && len(content.Raw) > 0 && src.URL != "" {
		if err := e.archive.Store(ctx, src.URL, content.Raw); err != nil {
			slog.Warn("failed to archive raw snapshot", "url", src.URL, "error", err)
		}
	}

	var chunks int
	if src.Type == models.DocTypeSocialPost && src.Post != nil {
		chunks, err = e.ingestPost(ctx, src, content)
	} else {
		chunks, err = e.ingestDocument(ctx, src, content)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{Chunks: chunks, Duration: time.Since(start)}
	slog.Info("source ingested",
		"type", src.Type,
		"url", src.URL,
		"chunks", result.Chunks,
		"duration", result.Duration)
	return result, nil
}

// ingestDocument chunks webpage or manual text, embeds each chunk, and writes
// the surviving set. For URL-keyed sources the write replaces the previous
// generation wholesale.
func (e *Engine) ingestDocument(ctx context.Context, src models.Source, content *normalize.Content) (int, error) {
	pieces := e.chunker.Split(content.Text)
	if len(pieces) == 0 {
		return 0, nil
	}

	now := time.Now()
	records := make([]models.ChunkRecord, 0, len(pieces))
	for i, piece := range pieces {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		vector, err := e.embedder.Embed(ctx, piece)
		if err != nil {
			var embErr *embeddings.EmbeddingError
			if errors.As(err, &embErr) {
				slog.Warn("embedding failed, dropping chunk",
					"url", src.URL, "chunk_index", i, "error", err)
				continue
			}
			return 0, err
		}

		records = append(records, models.ChunkRecord{
			ID:         models.NewChunkID(),
			DocType:    src.Type,
			Title:      content.Title,
			URL:        src.URL,
			Text:       piece,
			Embedding:  vector,
			ChunkIndex: i,
			Metadata:   src.Metadata,
			CreatedAt:  now,
		})
	}

	if len(records) == 0 {
		// Every chunk failed to embed. Keep whatever generation is already
		// indexed rather than replacing it with nothing.
		return 0, fmt.Errorf("all %d chunks failed embedding for %s", len(pieces), src.URL)
	}

	if src.URL != "" {
		if err := e.writer.ReplaceForURL(ctx, src.URL, records); err != nil {
			return 0, err
		}
	} else {
		if err := e.writer.InsertChunks(ctx, records); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// ingestPost writes a social post as a single chunk at a deterministic id, so
// edits to the same post overwrite in place.
func (e *Engine) ingestPost(ctx context.Context, src models.Source, content *normalize.Content) (int, error) {
	vector, err := e.embedder.Embed(ctx, content.Text)
	if err != nil {
		var embErr *embeddings.EmbeddingError
		if errors.As(err, &embErr) {
			slog.Warn("embedding failed, post not indexed", "post_id", src.Post.ID, "error", err)
			return 0, nil
		}
		return 0, err
	}

	record := models.ChunkRecord{
		ID:             models.PostChunkID(src.Post.ID),
		DocType:        models.DocTypeSocialPost,
		Title:          content.Title,
		URL:            src.URL,
		Text:           content.Text,
		Embedding:      vector,
		ChunkIndex:     0,
		Metadata:       postMetadata(src),
		CreatedAt:      time.Now(),
		OriginalPostID: src.Post.ID,
	}

	if err := e.writer.UpsertChunk(ctx, record); err != nil {
		return 0, err
	}
	return 1, nil
}

// postMetadata merges source metadata with the post's platform and author.
func postMetadata(src models.Source) map[string]string {
	meta := make(map[string]string, len(src.Metadata)+2)
	for k, v := range src.Metadata {
		meta[k] = v
	}
	if src.Post.Platform != "" {
		meta["platform"] = src.Post.Platform
	}
	if src.Post.Author != "" {
		meta["author"] = src.Post.Author
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// IngestBatch ingests a set of webpage URLs sequentially. A failure on one
// URL is recorded and the rest still run.
func (e *Engine) IngestBatch(ctx context.Context, urls []string) *BatchResult {
	start := time.Now()
	result := &BatchResult{}

	for _, pageURL := range urls {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "context cancelled")
			break
		}

		res, err := e.Ingest(ctx, models.Source{
			Type: models.DocTypeWebpage,
			URL:  pageURL,
		})
		if err != nil {
			slog.Error("failed to ingest url", "url", pageURL, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pageURL, err))
			continue
		}
		result.Ingested++
		result.Chunks += res.Chunks
	}

	result.Duration = time.Since(start)
	slog.Info("batch ingestion complete",
		"urls", len(urls),
		"ingested", result.Ingested,
		"chunks", result.Chunks,
		"errors", len(result.Errors),
		"duration", result.Duration)
	return result
}
