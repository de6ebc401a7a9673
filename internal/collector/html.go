package collector

import (
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/LJTian/TrendScraper/internal/trend"
)

const (
	defaultDatePattern = `/(19|20)\d{2}/`
	defaultMaxItems    = 15

	minLinkTextLen       = 15
	maxLinkTextLen       = 200
	nearSummaryMinLen    = 20
	nearSummaryMaxLevels = 3
	containerSummaryMax  = 500
)

// Profile 描述一个新闻站点的解析参数
type Profile struct {
	Name        string
	BaseURL     string
	DefaultURL  string
	DatePattern string
	Blocklist   []string
	MaxItems    int
}

// HTMLExtractor 通用新闻列表页解析：
// 先按链接扫描（URL 含年份的文章链接），找不到再退回按文章容器扫描。
type HTMLExtractor struct {
	profile     Profile
	base        *url.URL
	datePattern *regexp.Regexp
	blocklist   []string
}

func NewHTMLExtractor(p Profile) (*HTMLExtractor, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("html extractor: empty name")
	}
	if p.DatePattern == "" {
		p.DatePattern = defaultDatePattern
	}
	re, err := regexp.Compile(p.DatePattern)
	if err != nil {
		return nil, fmt.Errorf("html extractor %s: date pattern: %w", p.Name, err)
	}
	if p.MaxItems <= 0 {
		p.MaxItems = defaultMaxItems
	}

	var base *url.URL
	if p.BaseURL != "" {
		base, err = url.Parse(p.BaseURL)
		if err != nil || base.Host == "" {
			return nil, fmt.Errorf("html extractor %s: invalid base url %q", p.Name, p.BaseURL)
		}
	}

	blocklist := make([]string, 0, len(defaultBlocklist)+len(p.Blocklist))
	blocklist = append(blocklist, defaultBlocklist...)
	for _, b := range p.Blocklist {
		if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
			blocklist = append(blocklist, b)
		}
	}

	return &HTMLExtractor{profile: p, base: base, datePattern: re, blocklist: blocklist}, nil
}

func (e *HTMLExtractor) Name() string {
	return e.profile.Name
}

func (e *HTMLExtractor) DefaultURL() string {
	return e.profile.DefaultURL
}

func (e *HTMLExtractor) Parse(raw, sourceURL string) (*trend.Collection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %w", e.profile.Name, err)
	}

	col := trend.NewCollection(e.profile.Name)
	base := e.siteBase(sourceURL)

	links := e.findArticleLinks(doc, base)
	if len(links) > 0 {
		log.Printf("%s: found %d article links", e.profile.Name, len(links))
	}
	for _, link := range links {
		col.Add(e.trendFromLink(link))
	}

	if col.TotalCount() == 0 {
		containers := e.findContainers(doc)
		log.Printf("%s: found %d article containers", e.profile.Name, len(containers))
		for _, c := range containers {
			if r, ok := e.trendFromContainer(c, base); ok {
				col.Add(r)
			}
		}
	}
	return col, nil
}

// siteBase 相对链接的解析基准：优先使用配置的站点地址，否则取来源页面的 scheme+host
func (e *HTMLExtractor) siteBase(sourceURL string) *url.URL {
	if e.base != nil {
		return e.base
	}
	u, err := url.Parse(sourceURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}
}

// articleLink 通过筛选的链接及其解析后的绝对地址
type articleLink struct {
	sel *goquery.Selection
	url string
}

// findArticleLinks 按文档顺序返回符合条件的文章链接。
// 按规范化后的地址去重，无法解析的链接不占 MaxItems 名额。
func (e *HTMLExtractor) findArticleLinks(doc *goquery.Document, base *url.URL) []articleLink {
	var (
		links []articleLink
		seen  = make(map[string]struct{})
	)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !e.isArticleLink(href, textOf(s)) {
			return true
		}
		articleURL, ok := resolveHref(href, base)
		if !ok {
			return true
		}
		key, ok := trend.DedupKey(articleURL)
		if !ok {
			return true
		}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		links = append(links, articleLink{sel: s, url: articleURL})
		return len(links) < e.profile.MaxItems
	})
	return links
}

func (e *HTMLExtractor) isArticleLink(href, text string) bool {
	if href == "" || text == "" {
		return false
	}
	if !e.datePattern.MatchString(href) {
		return false
	}
	n := utf8.RuneCountInString(text)
	if n < minLinkTextLen || n > maxLinkTextLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, b := range e.blocklist {
		if strings.Contains(lower, b) {
			return false
		}
	}
	return true
}

func (e *HTMLExtractor) trendFromLink(link articleLink) trend.Record {
	title := textOf(link.sel)
	summary := summaryNearLink(link.sel)
	return trend.Record{
		Title:   title,
		URL:     link.url,
		Source:  e.profile.Name,
		Summary: summary,
		Tags:    DeriveTags(title, summary),
	}
}

// summaryNearLink 向上最多 3 层查找 class 含 excerpt/summary 的 p 或 div
func summaryNearLink(link *goquery.Selection) string {
	parent := link.Parent()
	for i := 0; i < nearSummaryMaxLevels && parent.Length() > 0; i++ {
		elem := parent.Find("p, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class := strings.ToLower(s.AttrOr("class", ""))
			return strings.Contains(class, "excerpt") || strings.Contains(class, "summary")
		}).First()
		if elem.Length() > 0 {
			if text := textOf(elem); utf8.RuneCountInString(text) > nearSummaryMinLen {
				return trend.TruncateRunes(text, trend.MaxSummaryLen)
			}
		}
		parent = parent.Parent()
	}
	return ""
}

// findContainers 第一个有匹配的容器选择器生效，最多 MaxItems 个
func (e *HTMLExtractor) findContainers(doc *goquery.Document) []*goquery.Selection {
	for _, sel := range containerSelectors {
		found := doc.Find(sel)
		if found.Length() == 0 {
			continue
		}
		out := make([]*goquery.Selection, 0, e.profile.MaxItems)
		found.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = append(out, s)
			return len(out) < e.profile.MaxItems
		})
		return out
	}
	return nil
}

func (e *HTMLExtractor) trendFromContainer(container *goquery.Selection, base *url.URL) (trend.Record, bool) {
	link := e.findTitleLink(container)
	if link == nil {
		return trend.Record{}, false
	}
	title := textOf(link)
	if utf8.RuneCountInString(title) < trend.MinTitleLen {
		return trend.Record{}, false
	}
	href, _ := link.Attr("href")
	articleURL, ok := resolveHref(href, base)
	if !ok {
		return trend.Record{}, false
	}
	summary := containerSummary(container)
	return trend.Record{
		Title:   title,
		URL:     articleURL,
		Source:  e.profile.Name,
		Summary: summary,
		Tags:    DeriveTags(title, summary),
	}, true
}

func (e *HTMLExtractor) findTitleLink(container *goquery.Selection) *goquery.Selection {
	for _, find := range titleFinders {
		s := find(e, container)
		if s.Length() > 0 && textOf(s) != "" {
			return s
		}
	}
	return nil
}

func containerSummary(container *goquery.Selection) string {
	for _, sel := range summarySelectors {
		var summary string
		container.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := textOf(s)
			if n := utf8.RuneCountInString(text); n > nearSummaryMinLen && n < containerSummaryMax {
				summary = trend.TruncateRunes(text, trend.MaxSummaryLen)
				return false
			}
			return true
		})
		if summary != "" {
			return summary
		}
	}
	return ""
}

// resolveHref 绝对 http(s) 链接原样返回，站内绝对路径拼接站点地址，其余丢弃
func resolveHref(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return href, true
	}
	if !strings.HasPrefix(href, "/") || base == nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// textOf 取元素文本并折叠空白
func textOf(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
