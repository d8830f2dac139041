package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3/MinIO archive configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client stores raw HTML snapshots of ingested pages in S3/MinIO, keyed by
// URL, so a page's last fetched form can be inspected after the fact.
type Client struct {
	minioClient *minio.Client
	bucket      string
}

// New creates a new archive client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{
		minioClient: minioClient,
		bucket:      config.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// objectName derives a stable key from the page URL: snapshots/{host}/{hash}.html.
// Re-ingesting the same URL overwrites its snapshot.
func objectName(pageURL string) string {
	host := "unknown"
	if parsed, err := url.Parse(pageURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	sum := sha256.Sum256([]byte(pageURL))
	return path.Join("snapshots", host, hex.EncodeToString(sum[:])[:16]+".html")
}

// Store writes the raw HTML snapshot for a URL.
func (c *Client) Store(ctx context.Context, pageURL string, raw []byte) error {
	_, err := c.minioClient.PutObject(ctx, c.bucket, objectName(pageURL),
		bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
			ContentType:  "text/html",
			UserMetadata: map[string]string{"source-url": pageURL},
		})
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Fetch reads back the stored snapshot for a URL.
func (c *Client) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	object, err := c.minioClient.GetObject(ctx, c.bucket, objectName(pageURL), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}
