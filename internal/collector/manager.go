package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/LJTian/TrendScraper/internal/fetcher"
	"github.com/LJTian/TrendScraper/internal/trend"
)

// ErrNotFound 请求的采集器未注册
var ErrNotFound = errors.New("scraper not found")

// ScrapeOptions 单次采集参数；零值表示使用缓存
type ScrapeOptions struct {
	NoCache bool
	Fetch   fetcher.Options
}

// Manager 按名称管理采集器，负责单个或批量调度
type Manager struct {
	mu         sync.RWMutex
	names      []string
	extractors map[string]Extractor

	source     ContentSource
	defaultURL string
}

func NewManager(src ContentSource, defaultURL string) *Manager {
	return &Manager{
		extractors: make(map[string]Extractor),
		source:     src,
		defaultURL: defaultURL,
	}
}

// Register 注册采集器；重复注册会覆盖，但保留原有顺序
func (m *Manager) Register(name string, ex Extractor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.extractors[name]; !ok {
		m.names = append(m.names, name)
	}
	m.extractors[name] = ex
}

func (m *Manager) Get(name string) (Extractor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ex, ok := m.extractors[name]
	return ex, ok
}

// List 按注册顺序返回名称
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// DefaultURL 返回采集器实际使用的默认地址
func (m *Manager) DefaultURL(name string) string {
	if ex, ok := m.Get(name); ok {
		if p, ok := ex.(DefaultURLProvider); ok && p.DefaultURL() != "" {
			return p.DefaultURL()
		}
	}
	return m.defaultURL
}

// Scrape 使用指定采集器抓取；target 为空时使用默认地址
func (m *Manager) Scrape(ctx context.Context, name, target string, opts ScrapeOptions) (*trend.Collection, error) {
	ex, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if target == "" {
		target = m.DefaultURL(name)
	}
	return ScrapeTrends(ctx, name, ex, m.source, target, !opts.NoCache, opts.Fetch), nil
}

// ScrapeAll 依次运行所有采集器，单个采集器异常不影响其它采集器
func (m *Manager) ScrapeAll(ctx context.Context, target string, opts ScrapeOptions) map[string]*trend.Collection {
	names := m.List()
	results := make(map[string]*trend.Collection, len(names))
	for _, name := range names {
		results[name] = m.scrapeIsolated(ctx, name, target, opts)
	}
	return results
}

func (m *Manager) scrapeIsolated(ctx context.Context, name, target string, opts ScrapeOptions) (col *trend.Collection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scrape %s panic: %v", name, r)
			col = trend.NewCollection(name)
		}
	}()

	col, err := m.Scrape(ctx, name, target, opts)
	if err != nil {
		log.Printf("scrape %s error: %v", name, err)
		return trend.NewCollection(name)
	}
	return col
}
