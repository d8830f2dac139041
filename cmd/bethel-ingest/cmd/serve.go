package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/spf13/cobra"

	"github.com/systems2beyond/bethel-social-sub005/internal/api"
	"github.com/systems2beyond/bethel-social-sub005/internal/crawler"
	"github.com/systems2beyond/bethel-social-sub005/internal/postwatch"
	"github.com/systems2beyond/bethel-social-sub005/internal/sweep"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion service",
	Long: `Start the long-running ingestion service: the authenticated HTTP API,
the post-change watcher, and (if enabled) the periodic sweep over the
configured URL set.

Examples:
  bethel-ingest serve
  BETHEL_SWEEP_ENABLED=true bethel-ingest serve --verbose`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required to serve the API")
	}

	engine, store, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}

	// In-process bus between the webhook endpoint and the post watcher.
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	watcher := postwatch.NewWatcher(bus, engine)
	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("failed to start post watcher: %w", err)
	}

	if cfg.Sweep.Enabled {
		var expander sweep.SeedExpander
		if cfg.Sweep.ExpandLinks {
			expander = crawler.New(crawler.Config{
				Delay:     cfg.Sweep.CrawlDelay,
				MaxDepth:  cfg.Sweep.CrawlDepth,
				UserAgent: cfg.Fetcher.UserAgent,
			})
		}
		sweeper := sweep.New(sweep.Config{
			URLs:        cfg.Sweep.URLs,
			Interval:    cfg.Sweep.Interval,
			ExpandLinks: cfg.Sweep.ExpandLinks,
		}, engine, expander)
		go sweeper.Run(ctx)
	}

	server := api.NewServer(api.Config{
		Addr:           cfg.Server.Addr,
		JWTSecret:      cfg.Server.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, engine, bus, store)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
