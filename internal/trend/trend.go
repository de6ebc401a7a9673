package trend

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinTitleLen   = 10
	MaxTitleLen   = 200
	MaxSummaryLen = 300
	MaxTags       = 5
)

// Record 单条趋势：一篇文章的标题、链接、摘要与标签
type Record struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Source     string    `json:"source"`
	Summary    string    `json:"summary"`
	Tags       []string  `json:"tags"`
	ObservedAt time.Time `json:"observed_at"`
}

// Collection 一次采集得到的有序结果，按规范化 URL 去重（先到先得）
type Collection struct {
	Source    string
	ScrapedAt time.Time

	trends []Record
	seen   map[string]struct{}
}

// Document 序列化输出结构
type Document struct {
	Trends     []Record  `json:"trends"`
	Source     string    `json:"source"`
	ScrapedAt  time.Time `json:"scraped_at"`
	TotalCount int       `json:"total_count"`
}

func NewCollection(source string) *Collection {
	return &Collection{
		Source:    source,
		ScrapedAt: time.Now().UTC(),
		seen:      make(map[string]struct{}),
	}
}

// Add 校验并追加一条记录，返回是否被接受。
// 标题不在 10–200 字符之间、URL 非绝对地址、或 URL 已出现过的记录会被丢弃。
func (c *Collection) Add(r Record) bool {
	r.Title = strings.TrimSpace(r.Title)
	n := utf8.RuneCountInString(r.Title)
	if n < MinTitleLen || n > MaxTitleLen {
		return false
	}

	normalized, ok := NormalizeURL(r.URL)
	if !ok {
		return false
	}
	key := dedupKey(normalized)
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, dup := c.seen[key]; dup {
		return false
	}

	r.URL = normalized
	r.Summary = TruncateRunes(strings.TrimSpace(r.Summary), MaxSummaryLen)
	if len(r.Tags) > MaxTags {
		r.Tags = r.Tags[:MaxTags]
	}
	r.Tags = append(make([]string, 0, len(r.Tags)), r.Tags...)
	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now().UTC()
	}

	c.seen[key] = struct{}{}
	c.trends = append(c.trends, r)
	return true
}

// Trends 返回记录的副本，调用方修改不会影响集合本身
func (c *Collection) Trends() []Record {
	out := make([]Record, len(c.trends))
	copy(out, c.trends)
	return out
}

func (c *Collection) TotalCount() int {
	return len(c.trends)
}

// Stamp 回填来源名称（集合与其中每条记录）
func (c *Collection) Stamp(source string) {
	c.Source = source
	for i := range c.trends {
		c.trends[i].Source = source
	}
}

func (c *Collection) Document() Document {
	return Document{
		Trends:     c.Trends(),
		Source:     c.Source,
		ScrapedAt:  c.ScrapedAt,
		TotalCount: c.TotalCount(),
	}
}

func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Document())
}

// NormalizeURL 规范化绝对 http(s) 地址：scheme/host 小写、去掉 fragment、空路径补 "/"
func NormalizeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), true
}

// DedupKey 集合内部使用的去重 key，raw 不是合法 http(s) 地址时返回 false
func DedupKey(raw string) (string, bool) {
	normalized, ok := NormalizeURL(raw)
	if !ok {
		return "", false
	}
	return dedupKey(normalized), true
}

// dedupKey 末尾的 "/" 不影响去重判断
func dedupKey(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return normalized
	}
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}

// TruncateRunes 按 rune 截断，避免切断多字节字符
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
