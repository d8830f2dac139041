package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/systems2beyond/bethel-social-sub005/internal/archive"
	"github.com/systems2beyond/bethel-social-sub005/internal/chunker"
	"github.com/systems2beyond/bethel-social-sub005/internal/config"
	"github.com/systems2beyond/bethel-social-sub005/internal/embeddings"
	"github.com/systems2beyond/bethel-social-sub005/internal/index"
	"github.com/systems2beyond/bethel-social-sub005/internal/ingest"
	"github.com/systems2beyond/bethel-social-sub005/internal/normalize"
	"github.com/systems2beyond/bethel-social-sub005/internal/vision"
)

// buildEngine wires the ingestion engine and its dependencies from config.
// The returned index client is also handed back so callers can health-check
// and ensure the index exists.
func buildEngine(ctx context.Context, cfg config.Config) (*ingest.Engine, *index.Client, error) {
	store, err := index.New(index.Config{
		Addresses:     cfg.Elasticsearch.Addresses,
		Index:         cfg.Elasticsearch.Index,
		Username:      cfg.Elasticsearch.Username,
		Password:      cfg.Elasticsearch.Password,
		EmbeddingDims: cfg.Elasticsearch.EmbeddingDims,
		BulkBatchSize: cfg.Elasticsearch.BulkBatchSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create index client: %w", err)
	}
	if err := store.EnsureIndex(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure index: %w", err)
	}

	embedder, err := embeddings.New(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		APIKey:  cfg.Embeddings.APIKey,
		Model:   cfg.Embeddings.Model,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embeddings client: %w", err)
	}

	var describer normalize.Describer
	if cfg.Vision.Enabled {
		visionClient, err := vision.New(vision.Config{
			BaseURL: cfg.Vision.BaseURL,
			APIKey:  cfg.Vision.APIKey,
			Model:   cfg.Vision.Model,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create vision client: %w", err)
		}
		describer = visionClient
		slog.Info("image description enabled", "model", cfg.Vision.Model)
	}

	normalizer := normalize.New(normalize.Config{
		Timeout:   cfg.Fetcher.Timeout,
		UserAgent: cfg.Fetcher.UserAgent,
	}, describer)

	ch, err := chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid chunker config: %w", err)
	}

	var archiver ingest.Archiver
	if cfg.Archive.Enabled {
		archiveClient, err := archive.New(archive.Config{
			Endpoint:        cfg.Archive.Endpoint,
			Bucket:          cfg.Archive.Bucket,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			UseSSL:          cfg.Archive.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create archive client: %w", err)
		}
		if err := archiveClient.EnsureBucket(ctx); err != nil {
			slog.Warn("archive bucket unavailable, snapshots disabled", "error", err)
		} else {
			archiver = archiveClient
			slog.Info("raw snapshot archiving enabled", "bucket", cfg.Archive.Bucket)
		}
	}

	return ingest.New(normalizer, ch, embedder, store, archiver), store, nil
}
