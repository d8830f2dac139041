package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server        Server        `mapstructure:"server"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Embeddings    Embeddings    `mapstructure:"embeddings"`
	Vision        Vision        `mapstructure:"vision"`
	Chunker       Chunker       `mapstructure:"chunker"`
	Fetcher       Fetcher       `mapstructure:"fetcher"`
	Sweep         Sweep         `mapstructure:"sweep"`
	Archive       Archive       `mapstructure:"archive"`
}

// Server holds HTTP server configuration.
type Server struct {
	Addr           string   `mapstructure:"addr"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Addresses     []string `mapstructure:"addresses"`
	Index         string   `mapstructure:"index"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	EmbeddingDims int      `mapstructure:"embedding_dims"`
	BulkBatchSize int      `mapstructure:"bulk_batch_size"`
}

// Embeddings holds embedding model configuration.
type Embeddings struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// Vision holds image description model configuration.
type Vision struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// Chunker holds text chunking configuration.
type Chunker struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// Fetcher holds webpage fetching configuration.
type Fetcher struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Sweep holds scheduled re-ingestion configuration.
type Sweep struct {
	Enabled     bool          `mapstructure:"enabled"`
	URLs        []string      `mapstructure:"urls"`
	Interval    time.Duration `mapstructure:"interval"`
	ExpandLinks bool          `mapstructure:"expand_links"`
	CrawlDelay  time.Duration `mapstructure:"crawl_delay"`
	CrawlDepth  int           `mapstructure:"crawl_depth"`
}

// Archive holds raw snapshot storage configuration.
type Archive struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr: ":8080",
		},
		Elasticsearch: Elasticsearch{
			Addresses:     []string{"http://localhost:9200"},
			Index:         "bethel-chunks",
			EmbeddingDims: 768,
			BulkBatchSize: 500,
		},
		Embeddings: Embeddings{
			BaseURL: "http://localhost:11434",
			Model:   "nomic-embed-text",
		},
		Vision: Vision{
			Enabled: false, // needs a vision-capable model endpoint
			BaseURL: "http://localhost:11434",
			Model:   "llava",
		},
		Chunker: Chunker{
			Size:    1000,
			Overlap: 100,
		},
		Fetcher: Fetcher{
			Timeout:   30 * time.Second,
			UserAgent: "bethel-ingest/1.0",
		},
		Sweep: Sweep{
			Enabled:     false,
			Interval:    6 * time.Hour,
			ExpandLinks: false,
			CrawlDelay:  1 * time.Second,
			CrawlDepth:  2,
		},
		Archive: Archive{
			Enabled:         false,
			Endpoint:        "localhost:9000",
			Bucket:          "bethel-snapshots",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
	}
}
