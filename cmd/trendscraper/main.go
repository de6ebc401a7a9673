package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/LJTian/TrendScraper/internal/app"
	"github.com/LJTian/TrendScraper/internal/config"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "trendscraper",
		Short: "A modular web scraper for tech trends",
		Long: `trendscraper fetches news pages, extracts trending articles with
site-specific heuristics and caches raw pages in Redis.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// 默认不输出日志，保证结果输出干净
			if verbose {
				log.SetOutput(cmd.ErrOrStderr())
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(
		newScrapeCmd(),
		newListScrapersCmd(),
		newCacheCmd(),
		newCollectCmd(),
	)
	return root
}

// setup 加载配置并组装依赖
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return app.New(ctx, cfg)
}

func newListScrapersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-scrapers",
		Short: "List all available scrapers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available Scrapers:")
			fmt.Fprintln(out, separator(30))
			for _, name := range a.Scrapers.List() {
				fmt.Fprintf(out, "  - %s (%s)\n", name, a.Scrapers.DefaultURL(name))
			}
			fmt.Fprintln(out, "\nUsage: trendscraper scrape --scraper <name>")
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
