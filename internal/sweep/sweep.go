package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/systems2beyond/bethel-social-sub005/internal/ingest"
)

// BatchIngestor runs a batch of webpage URLs through ingestion.
type BatchIngestor interface {
	IngestBatch(ctx context.Context, urls []string) *ingest.BatchResult
}

// SeedExpander discovers additional page URLs reachable from a seed.
type SeedExpander interface {
	Discover(ctx context.Context, seedURL string) ([]string, error)
}

// Config holds sweep configuration.
type Config struct {
	URLs        []string
	Interval    time.Duration
	ExpandLinks bool // crawl each URL for same-host pages before ingesting
}

// Sweeper periodically re-ingests a fixed set of webpage URLs so the index
// tracks content edits without manual triggering.
type Sweeper struct {
	config   Config
	engine   BatchIngestor
	expander SeedExpander // nil unless link expansion enabled
}

// New creates a Sweeper. expander may be nil when link expansion is off.
func New(config Config, engine BatchIngestor, expander SeedExpander) *Sweeper {
	if config.Interval == 0 {
		config.Interval = 6 * time.Hour
	}
	return &Sweeper{config: config, engine: engine, expander: expander}
}

// RunOnce executes a single sweep over the configured URL set. Failures on
// individual URLs are recorded in the batch result, never propagated.
func (s *Sweeper) RunOnce(ctx context.Context) *ingest.BatchResult {
	urls := s.config.URLs
	if s.config.ExpandLinks && s.expander != nil {
		urls = s.expandSeeds(ctx)
	}

	slog.Info("starting sweep", "urls", len(urls))
	return s.engine.IngestBatch(ctx, urls)
}

// expandSeeds crawls each configured URL for same-host pages. A failed crawl
// falls back to the seed itself so the sweep still refreshes it.
func (s *Sweeper) expandSeeds(ctx context.Context) []string {
	seen := map[string]bool{}
	var urls []string
	add := func(u string) {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, seed := range s.config.URLs {
		discovered, err := s.expander.Discover(ctx, seed)
		if err != nil {
			slog.Warn("link expansion failed, sweeping seed only", "seed", seed, "error", err)
			add(seed)
			continue
		}
		add(seed)
		for _, u := range discovered {
			add(u)
		}
	}
	return urls
}

// Run sweeps immediately and then on every interval tick until the context
// is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("sweep scheduler started", "interval", s.config.Interval, "urls", len(s.config.URLs))

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweep scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
