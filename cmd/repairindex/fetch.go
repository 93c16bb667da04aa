package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"repairindex/fetchcache"
	"repairindex/frenchindex"
	"repairindex/ifixit"
	"repairindex/internal/logging"
	"repairindex/pipeline"
)

var (
	flagCategories    []string
	flagOutput        string
	flagXLSX          string
	flagCachePath     string
	flagCacheTTL      time.Duration
	flagWorkers       int
	flagRate          float64
	flagMatchStrategy string
	flagSkipFrench    bool
	flagAuthToken     string
	flagLogLevel      string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Build the repairability report",
	Long: `Fetch device data from iFixit and the French repairability index and
write the merged report.

Examples:
  repairindex fetch --output devices_with_scores.json
  repairindex fetch --categories iPhone --match-strategy strict
  repairindex fetch --cache pages.db --xlsx report.xlsx`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringSliceVar(&flagCategories, "categories", []string{"iPhone", "Android Phone"}, "Categories to collect devices from")
	fetchCmd.Flags().StringVarP(&flagOutput, "output", "o", "devices_with_scores.json", "Output file for the JSON report")
	fetchCmd.Flags().StringVar(&flagXLSX, "xlsx", "", "Also export the report as a spreadsheet")
	fetchCmd.Flags().StringVar(&flagCachePath, "cache", "", "SQLite page cache for the French catalog (empty disables caching)")
	fetchCmd.Flags().DurationVar(&flagCacheTTL, "cache-ttl", fetchcache.DefaultTTL, "How long cached pages stay valid")
	fetchCmd.Flags().IntVar(&flagWorkers, "workers", 8, "Concurrent device fetches")
	fetchCmd.Flags().Float64Var(&flagRate, "rate", 4, "iFixit requests per second across all workers")
	fetchCmd.Flags().StringVar(&flagMatchStrategy, "match-strategy", "exact", "French score matching: exact or strict")
	fetchCmd.Flags().BoolVar(&flagSkipFrench, "skip-french", false, "Skip the French catalog entirely")
	fetchCmd.Flags().StringVar(&flagAuthToken, "auth-token", "", "iFixit API token (optional)")
	fetchCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger := logging.New(flagLogLevel)

	strategy := pipeline.MatchStrategy(flagMatchStrategy)
	switch strategy {
	case pipeline.MatchExact, pipeline.MatchStrict:
	default:
		return fmt.Errorf("unknown match strategy %q (supported: exact, strict)", flagMatchStrategy)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := ifixit.NewClient(ifixit.Config{
		AuthToken: flagAuthToken,
		RateLimit: rate.Limit(flagRate),
		Logger:    logger,
	})

	var french pipeline.FrenchSource
	if !flagSkipFrench {
		scraperCfg := frenchindex.ScraperConfig{Logger: logger}
		if flagCachePath != "" {
			cache, err := fetchcache.Open(flagCachePath, flagCacheTTL)
			if err != nil {
				return fmt.Errorf("open page cache: %w", err)
			}
			defer cache.Close()
			scraperCfg.Cache = cache
		}
		french = frenchindex.NewScraper(scraperCfg)
	}

	p := pipeline.New(client, french, pipeline.Config{
		Categories: flagCategories,
		// Accessory pages under the iPhone category are wiki leaves
		// but not devices; collecting them poisons the score fetch.
		ExcludeSubtrees: map[string][]string{"iPhone": {"iPhone Accessories"}},
		Workers:         flagWorkers,
		OutputPath:      flagOutput,
		XLSXPath:        flagXLSX,
		MatchStrategy:   strategy,
		Logger:          logger,
	})

	summary, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Printf("Run %s: %d devices, %d with scores, %d with guides, %d French matches, %d failures\n",
		summary.RunID, summary.Devices, summary.WithScore, summary.WithGuides,
		summary.FrenchMatched, summary.Failures)
	return nil
}
