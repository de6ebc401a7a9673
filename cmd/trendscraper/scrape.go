package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LJTian/TrendScraper/internal/collector"
)

type scrapeFlags struct {
	url     string
	scraper string
	output  string
	format  string
	noCache bool
}

func newScrapeCmd() *cobra.Command {
	var f scrapeFlags

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape trends using the specified scraper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch f.format {
			case formatJSON, formatSummary, formatTitles:
			default:
				return fmt.Errorf("invalid format %q (json|summary|titles)", f.format)
			}

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			col, err := a.Scrapers.Scrape(cmd.Context(), f.scraper, f.url, collector.ScrapeOptions{NoCache: f.noCache})
			if err != nil {
				return fmt.Errorf("scraping failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if f.format == formatJSON && f.output != "" {
				if err := writeFile(f.output, func(file *os.File) error { return writeJSON(file, col) }); err != nil {
					return err
				}
				fmt.Fprintf(out, "Results saved to %s\n", f.output)
				return nil
			}

			if err := render(out, f.format, col); err != nil {
				return err
			}
			if f.output != "" {
				if err := writeFile(f.output, func(file *os.File) error { return writeReport(file, f.format, col) }); err != nil {
					return err
				}
				fmt.Fprintf(out, "Results also saved to %s\n", f.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.url, "url", "u", "", "URL to scrape (defaults to the scraper's own URL)")
	cmd.Flags().StringVarP(&f.scraper, "scraper", "s", "techcrunch", "scraper to use")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file for results")
	cmd.Flags().StringVar(&f.format, "format", formatSummary, "output format: json|summary|titles")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "skip cache and fetch fresh content")
	return cmd
}

func writeFile(path string, write func(*os.File) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	return file.Close()
}
