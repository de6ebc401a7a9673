package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/LJTian/TrendScraper/internal/trend"
)

// summaryLimit 入库摘要的最大字符数（按 rune 计）
const summaryLimit = 280

// ProcessedTrend 是写入存储层前的统一结构
type ProcessedTrend struct {
	ID         string
	Title      string
	URL        string
	Source     string
	Summary    string
	Tags       []string
	ObservedAt time.Time
}

// SimpleProcessor 做最基础的数据清洗与 ID 生成
type SimpleProcessor struct{}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{}
}

// Process 合并多个来源的采集结果，跨来源按 URL 去重（先到先得）
func (p *SimpleProcessor) Process(cols ...*trend.Collection) []ProcessedTrend {
	total := 0
	for _, c := range cols {
		if c != nil {
			total += c.TotalCount()
		}
	}

	out := make([]ProcessedTrend, 0, total)
	seen := make(map[string]struct{}, total)
	for _, c := range cols {
		if c == nil {
			continue
		}
		for _, r := range c.Trends() {
			id := hashURL(r.URL)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			source := r.Source
			if source == "" {
				source = c.Source
			}
			out = append(out, ProcessedTrend{
				ID:         id,
				Title:      strings.TrimSpace(r.Title),
				URL:        r.URL,
				Source:     source,
				Summary:    truncateRunes(strings.TrimSpace(r.Summary), summaryLimit),
				Tags:       r.Tags,
				ObservedAt: r.ObservedAt,
			})
		}
	}
	return out
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}

// truncateRunes 超过 limit 时截断并追加省略号
func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if limit <= 0 || len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
