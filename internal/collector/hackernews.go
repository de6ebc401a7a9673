package collector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/LJTian/TrendScraper/internal/trend"
)

const (
	hnName     = "hackernews"
	hnBaseURL  = "https://news.ycombinator.com/"
	hnMaxItems = 30
)

// HackerNewsExtractor 解析 Hacker News 首页列表（tr.athing 行 + 紧随其后的 subtext 行）
type HackerNewsExtractor struct{}

func (h *HackerNewsExtractor) DefaultURL() string {
	return hnBaseURL
}

func (h *HackerNewsExtractor) Parse(raw, sourceURL string) (*trend.Collection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("hackernews: parse html: %w", err)
	}

	base, err := url.Parse(sourceURL)
	if err != nil || base.Host == "" {
		base, _ = url.Parse(hnBaseURL)
	}

	col := trend.NewCollection(hnName)
	doc.Find("tr.athing").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		link := row.Find("span.titleline > a").First()
		if link.Length() == 0 {
			// 旧版页面结构
			link = row.Find("a.storylink").First()
		}
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}

		title := textOf(link)
		summary := hnSubtext(row.Next())
		col.Add(trend.Record{
			Title:   title,
			URL:     base.ResolveReference(ref).String(),
			Source:  hnName,
			Summary: summary,
			Tags:    DeriveTags(title, ""),
		})
		return col.TotalCount() < hnMaxItems
	})
	return col, nil
}

// hnSubtext 拼出 "120 points by pg | 45 comments" 形式的摘要
func hnSubtext(row *goquery.Selection) string {
	sub := row.Find("td.subtext")
	if sub.Length() == 0 {
		return ""
	}

	parts := make([]string, 0, 3)
	if score := textOf(sub.Find("span.score")); score != "" {
		parts = append(parts, score)
	}
	if user := textOf(sub.Find("a.hnuser")); user != "" {
		parts = append(parts, "by "+user)
	}
	head := strings.Join(parts, " ")

	comments := ""
	sub.Find("a").Each(func(_ int, a *goquery.Selection) {
		if t := textOf(a); strings.Contains(strings.ToLower(t), "comment") {
			comments = t
		}
	})
	switch {
	case head != "" && comments != "":
		return head + " | " + comments
	case head != "":
		return head
	default:
		return comments
	}
}
