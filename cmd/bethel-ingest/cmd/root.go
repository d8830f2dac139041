package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/systems2beyond/bethel-social-sub005/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "bethel-ingest",
	Short: "Content ingestion and indexing for the congregation knowledge base",
	Long: `bethel-ingest pulls congregation content into the semantic index: it
fetches and cleans webpages, normalizes social posts (describing attached
images), chunks the text, embeds each chunk, and writes the result to
Elasticsearch.

Commands:
  serve   Start the HTTP API, post-change watcher, and sweep scheduler
  sweep   Run one sweep over the configured URL set and exit
  ingest  Ingest a single URL or text snippet and exit`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	// Start with defaults
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/bethel-ingest")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// BETHEL_ELASTICSEARCH_ADDRESSES -> elasticsearch.addresses
	viper.SetEnvPrefix("BETHEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind nested env vars
	viper.BindEnv("server.addr", "BETHEL_SERVER_ADDR")
	viper.BindEnv("server.jwt_secret", "BETHEL_SERVER_JWT_SECRET")
	viper.BindEnv("elasticsearch.addresses", "BETHEL_ELASTICSEARCH_ADDRESSES")
	viper.BindEnv("elasticsearch.index", "BETHEL_ELASTICSEARCH_INDEX")
	viper.BindEnv("elasticsearch.username", "BETHEL_ELASTICSEARCH_USERNAME")
	viper.BindEnv("elasticsearch.password", "BETHEL_ELASTICSEARCH_PASSWORD")
	viper.BindEnv("elasticsearch.embedding_dims", "BETHEL_ELASTICSEARCH_EMBEDDING_DIMS")
	viper.BindEnv("embeddings.base_url", "BETHEL_EMBEDDINGS_BASE_URL")
	viper.BindEnv("embeddings.api_key", "BETHEL_EMBEDDINGS_API_KEY")
	viper.BindEnv("embeddings.model", "BETHEL_EMBEDDINGS_MODEL")
	viper.BindEnv("vision.enabled", "BETHEL_VISION_ENABLED")
	viper.BindEnv("vision.base_url", "BETHEL_VISION_BASE_URL")
	viper.BindEnv("vision.api_key", "BETHEL_VISION_API_KEY")
	viper.BindEnv("vision.model", "BETHEL_VISION_MODEL")
	viper.BindEnv("chunker.size", "BETHEL_CHUNKER_SIZE")
	viper.BindEnv("chunker.overlap", "BETHEL_CHUNKER_OVERLAP")
	viper.BindEnv("sweep.enabled", "BETHEL_SWEEP_ENABLED")
	viper.BindEnv("sweep.urls", "BETHEL_SWEEP_URLS")
	viper.BindEnv("sweep.interval", "BETHEL_SWEEP_INTERVAL")
	viper.BindEnv("archive.enabled", "BETHEL_ARCHIVE_ENABLED")
	viper.BindEnv("archive.endpoint", "BETHEL_ARCHIVE_ENDPOINT")
	viper.BindEnv("archive.bucket", "BETHEL_ARCHIVE_BUCKET")
	viper.BindEnv("archive.access_key_id", "BETHEL_ARCHIVE_ACCESS_KEY_ID")
	viper.BindEnv("archive.secret_access_key", "BETHEL_ARCHIVE_SECRET_ACCESS_KEY")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Handle special case: list values as comma-separated strings from env
	if addrs := os.Getenv("BETHEL_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
	if urls := os.Getenv("BETHEL_SWEEP_URLS"); urls != "" {
		cfg.Sweep.URLs = strings.Split(urls, ",")
	}
}
