package collector

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/LJTian/TrendScraper/internal/trend"
)

const feedMaxItems = 20

// FeedExtractor 解析 RSS / Atom 订阅源
type FeedExtractor struct {
	name       string
	defaultURL string
}

func NewFeedExtractor(name, defaultURL string) *FeedExtractor {
	return &FeedExtractor{name: name, defaultURL: defaultURL}
}

// NewTechCrunchFeed TechCrunch 官方 RSS
func NewTechCrunchFeed() *FeedExtractor {
	return NewFeedExtractor("techcrunch_feed", "https://techcrunch.com/feed/")
}

func (f *FeedExtractor) DefaultURL() string {
	return f.defaultURL
}

func (f *FeedExtractor) Parse(raw, sourceURL string) (*trend.Collection, error) {
	feed, err := gofeed.NewParser().ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed %s: %w", f.name, sourceURL, err)
	}

	col := trend.NewCollection(f.name)
	for _, item := range feed.Items {
		if col.TotalCount() >= feedMaxItems {
			break
		}
		if item == nil {
			continue
		}
		summary := stripMarkup(item.Description)
		if summary == "" {
			summary = stripMarkup(item.Content)
		}
		summary = trend.TruncateRunes(summary, trend.MaxSummaryLen)
		title := strings.TrimSpace(item.Title)

		col.Add(trend.Record{
			Title:   title,
			URL:     strings.TrimSpace(item.Link),
			Source:  f.name,
			Summary: summary,
			Tags:    DeriveTags(title, summary),
		})
	}
	return col, nil
}

// stripMarkup 去掉描述里的 HTML 标签，只保留纯文本
func stripMarkup(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return textOf(doc.Selection)
}
