package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config holds crawler configuration.
type Config struct {
	Delay     time.Duration
	MaxDepth  int
	UserAgent string
	Timeout   time.Duration
}

// Crawler walks a site from a seed URL and collects the page URLs it finds.
// It never extracts content; fetching and cleanup happen downstream so that
// every page goes through the same normalization path.
type Crawler struct {
	config Config
}

// New creates a new Crawler with the given configuration.
func New(config Config) *Crawler {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "bethel-ingest/1.0"
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 2
	}
	return &Crawler{config: config}
}

// Discover visits the seed URL and returns every same-host page URL reachable
// within the configured depth, the seed included. The result is sorted and
// deduplicated.
func (c *Crawler) Discover(ctx context.Context, seedURL string) ([]string, error) {
	parsedSeed, err := url.Parse(seedURL)
	if err != nil {
		slog.Error("failed to parse seed URL", "url", seedURL, "error", err)
		return nil, err
	}

	found := map[string]bool{}
	var mu sync.Mutex
	var cancelled bool

	collector := colly.NewCollector(
		colly.MaxDepth(c.config.MaxDepth),
		colly.UserAgent(c.config.UserAgent),
	)

	collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       c.config.Delay,
		Parallelism: 2,
	})
	collector.SetRequestTimeout(c.config.Timeout)

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			slog.Debug("crawl cancelled", "url", r.URL.String())
			r.Abort()
			cancelled = true
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode >= 400 {
			slog.Debug("skipping page with error status", "url", r.Request.URL.String(), "status", r.StatusCode)
			return
		}
		mu.Lock()
		found[r.Request.URL.String()] = true
		mu.Unlock()
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		absoluteURL := e.Request.AbsoluteURL(e.Attr("href"))
		linkURL, err := url.Parse(absoluteURL)
		if err != nil {
			return
		}
		// Stay on the seed's host.
		if linkURL.Host == parsedSeed.Host {
			e.Request.Visit(absoluteURL)
		}
	})

	if err := collector.Visit(seedURL); err != nil {
		slog.Debug("visit error (continuing)", "url", seedURL, "error", err)
	}
	collector.Wait()

	if cancelled {
		return nil, ctx.Err()
	}

	urls := make([]string, 0, len(found))
	for pageURL := range found {
		urls = append(urls, pageURL)
	}
	sort.Strings(urls)

	slog.Debug("crawl complete", "seed", seedURL, "pages", len(urls))
	return urls, nil
}
