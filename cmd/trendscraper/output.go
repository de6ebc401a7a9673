package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/LJTian/TrendScraper/internal/trend"
)

const (
	formatJSON    = "json"
	formatSummary = "summary"
	formatTitles  = "titles"

	summaryTopN       = 10
	summaryPreviewLen = 150
	summaryMinLen     = 20
)

func separator(n int) string {
	return strings.Repeat("=", n)
}

func render(w io.Writer, format string, col *trend.Collection) error {
	switch format {
	case formatJSON:
		return writeJSON(w, col)
	case formatTitles:
		writeTitles(w, col)
	default:
		writeSummary(w, col)
	}
	return nil
}

func writeJSON(w io.Writer, col *trend.Collection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(col.Document())
}

func writeTitles(w io.Writer, col *trend.Collection) {
	fmt.Fprintf(w, "\n%d Trends from %s:\n", col.TotalCount(), col.Source)
	fmt.Fprintln(w, separator(60))
	for i, r := range col.Trends() {
		fmt.Fprintf(w, "%2d. %s\n", i+1, r.Title)
	}
}

func writeSummary(w io.Writer, col *trend.Collection) {
	fmt.Fprintln(w, "\nScrape Results")
	fmt.Fprintln(w, separator(50))
	fmt.Fprintf(w, "Source: %s\n", col.Source)
	fmt.Fprintf(w, "Total trends: %d\n", col.TotalCount())
	fmt.Fprintf(w, "Scraped at: %s\n", col.ScrapedAt.Format("2006-01-02 15:04:05"))

	trends := col.Trends()
	if len(trends) == 0 {
		fmt.Fprintln(w, "No trends found")
		return
	}

	fmt.Fprintln(w, "\nTop Trends:")
	if len(trends) > summaryTopN {
		trends = trends[:summaryTopN]
	}
	for i, r := range trends {
		fmt.Fprintf(w, "\n%2d. %s\n", i+1, r.Title)
		fmt.Fprintf(w, "    URL: %s\n", r.URL)
		if len(r.Tags) > 0 {
			fmt.Fprintf(w, "    Tags: %s\n", strings.Join(r.Tags, ", "))
		}
		if utf8.RuneCountInString(r.Summary) > summaryMinLen {
			fmt.Fprintf(w, "    Summary: %s\n", preview(r.Summary, summaryPreviewLen))
		}
	}
}

// writeReport 非 json 格式写文件时使用的纯文本报告
func writeReport(w io.Writer, format string, col *trend.Collection) error {
	if format == formatTitles {
		for _, r := range col.Trends() {
			if _, err := fmt.Fprintln(w, r.Title); err != nil {
				return err
			}
		}
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scrape Results - %s\n", col.Source)
	fmt.Fprintf(&b, "Total: %d trends\n", col.TotalCount())
	fmt.Fprintf(&b, "Date: %s\n\n", col.ScrapedAt.Format("2006-01-02 15:04:05 MST"))
	for i, r := range col.Trends() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		if len(r.Tags) > 0 {
			fmt.Fprintf(&b, "   Tags: %s\n", strings.Join(r.Tags, ", "))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func preview(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return trend.TruncateRunes(s, limit) + "..."
}
