package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

// DefaultBulkBatchSize caps the number of actions per bulk request. Oversized
// chunk sets are split across requests rather than rejected.
const DefaultBulkBatchSize = 500

// Config holds chunk-store client configuration.
type Config struct {
	Addresses     []string
	Index         string
	Username      string
	Password      string
	EmbeddingDims int // dense_vector dims in the mapping
	BulkBatchSize int
}

// Client wraps the Elasticsearch client with chunk-store operations.
type Client struct {
	es            *elasticsearch.Client
	index         string
	embeddingDims int
	bulkBatchSize int
}

// New creates a new chunk-store client.
func New(config Config) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	if config.EmbeddingDims == 0 {
		config.EmbeddingDims = 768
	}
	if config.BulkBatchSize <= 0 {
		config.BulkBatchSize = DefaultBulkBatchSize
	}

	return &Client{
		es:            es,
		index:         config.Index,
		embeddingDims: config.EmbeddingDims,
		bulkBatchSize: config.BulkBatchSize,
	}, nil
}

// Ping checks if the chunk store is available.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// chunkMapping defines the index mapping for chunk records. The dense_vector
// dims are filled from configuration.
const chunkMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"doc_type": { "type": "keyword" },
			"title": { "type": "text" },
			"url": { "type": "keyword" },
			"text": { "type": "text", "analyzer": "english" },
			"embedding": {
				"type": "dense_vector",
				"dims": %d,
				"index": true,
				"similarity": "cosine"
			},
			"chunk_index": { "type": "integer" },
			"metadata": { "type": "object", "dynamic": true },
			"created_at": { "type": "date" },
			"original_post_id": { "type": "keyword" }
		}
	}
}`

// EnsureIndex creates the chunk index with its mapping if it does not exist.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	mapping := fmt.Sprintf(chunkMapping, c.embeddingDims)
	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (c *Client) DeleteIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Refresh forces an index refresh so writes become visible to search.
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// idsResponse is the search response shape when only ids are requested.
type idsResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// ChunkIDsByURL returns the ids of every chunk record whose url matches.
func (c *Client) ChunkIDsByURL(ctx context.Context, url string) ([]string, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"url": url,
			},
		},
		"size":    10000,
		"_source": false,
	}

	data, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("id lookup failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		// Index not created yet: nothing indexed for any URL.
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("id lookup error: %s", res.String())
	}

	var ir idsResponse
	if err := json.NewDecoder(res.Body).Decode(&ir); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	ids := make([]string, len(ir.Hits.Hits))
	for i, hit := range ir.Hits.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// ReplaceForURL atomically swaps the chunk generation for a URL: every
// existing record with that url is deleted and the new chunk set inserted in
// the same bulk request, so no stale chunks survive a recrawl.
func (c *Client) ReplaceForURL(ctx context.Context, url string, chunks []models.ChunkRecord) error {
	staleIDs, err := c.ChunkIDsByURL(ctx, url)
	if err != nil {
		return err
	}

	ops := make([]bulkOp, 0, len(staleIDs)+len(chunks))
	for _, id := range staleIDs {
		ops = append(ops, bulkOp{action: "delete", id: id})
	}
	for _, chunk := range chunks {
		doc, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk %s: %w", chunk.ID, err)
		}
		ops = append(ops, bulkOp{action: "index", id: chunk.ID, doc: doc})
	}

	return c.executeBulk(ctx, ops)
}

// InsertChunks writes a chunk set without a delete phase, for manual text
// that has no URL to key a replacement on.
func (c *Client) InsertChunks(ctx context.Context, chunks []models.ChunkRecord) error {
	ops := make([]bulkOp, 0, len(chunks))
	for _, chunk := range chunks {
		doc, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk %s: %w", chunk.ID, err)
		}
		ops = append(ops, bulkOp{action: "index", id: chunk.ID, doc: doc})
	}
	return c.executeBulk(ctx, ops)
}

// UpsertChunk creates or overwrites exactly one chunk record at its id. Used
// for social posts, whose id is deterministic.
func (c *Client) UpsertChunk(ctx context.Context, chunk models.ChunkRecord) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk: %w", err)
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(chunk.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error upserting chunk (status %d): %s", res.StatusCode, res.String())
	}

	return nil
}

// bulkResponse is the subset of the bulk API response we inspect.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// executeBulk sends the operations through the bulk API, splitting above the
// configured batch cap.
func (c *Client) executeBulk(ctx context.Context, ops []bulkOp) error {
	for _, batch := range splitOps(ops, c.bulkBatchSize) {
		body := encodeBulk(batch)

		res, err := c.es.Bulk(
			bytes.NewReader(body),
			c.es.Bulk.WithContext(ctx),
			c.es.Bulk.WithIndex(c.index),
		)
		if err != nil {
			return fmt.Errorf("bulk request failed: %w", err)
		}

		var br bulkResponse
		decodeErr := json.NewDecoder(res.Body).Decode(&br)
		res.Body.Close()

		if res.IsError() {
			return fmt.Errorf("bulk error (status %d)", res.StatusCode)
		}
		if decodeErr != nil {
			return fmt.Errorf("failed to decode bulk response: %w", decodeErr)
		}
		if br.Errors {
			for _, item := range br.Items {
				for action, detail := range item {
					if detail.Error != nil {
						return fmt.Errorf("bulk %s failed: %s: %s", action, detail.Error.Type, detail.Error.Reason)
					}
				}
			}
			return fmt.Errorf("bulk request reported item errors")
		}
	}
	return nil
}
