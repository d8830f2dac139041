package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/systems2beyond/bethel-social-sub005/internal/crawler"
	"github.com/systems2beyond/bethel-social-sub005/internal/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one sweep over the configured URL set and exit",
	Long: `Re-ingest every URL in the configured sweep set once. Failures on
individual URLs are reported but do not stop the sweep.

Examples:
  bethel-ingest sweep
  BETHEL_SWEEP_URLS=https://church.example.org/events bethel-ingest sweep`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	if len(cfg.Sweep.URLs) == 0 {
		return fmt.Errorf("no sweep URLs configured - set sweep.urls or BETHEL_SWEEP_URLS")
	}

	engine, _, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}

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
		ExpandLinks: cfg.Sweep.ExpandLinks,
	}, engine, expander)

	result := sweeper.RunOnce(ctx)

	fmt.Printf("\nSweep complete:\n")
	fmt.Printf("  URLs ingested: %d\n", result.Ingested)
	fmt.Printf("  Chunks written: %d\n", result.Chunks)
	fmt.Printf("  Duration: %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("  Failures: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	return nil
}
