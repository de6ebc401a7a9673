package collector

import (
	"context"
	"log"

	"github.com/LJTian/TrendScraper/internal/fetcher"
	"github.com/LJTian/TrendScraper/internal/trend"
)

// Extractor 抽象每一个站点的解析逻辑，只负责把原始内容解析为趋势集合
type Extractor interface {
	Parse(raw, sourceURL string) (*trend.Collection, error)
}

// DefaultURLProvider 可选接口：提供自身的默认抓取地址
type DefaultURLProvider interface {
	DefaultURL() string
}

// ContentSource 原始内容来源，生产环境为 fetcher.Fetcher
type ContentSource interface {
	Fetch(ctx context.Context, target string, useCache bool, opts fetcher.Options) (string, bool)
}

// ScrapeTrends 拉取 + 解析的统一驱动。
// 拉取失败、解析报错或 panic 都只会得到一个空集合，不向上传播。
func ScrapeTrends(ctx context.Context, name string, ex Extractor, src ContentSource, target string, useCache bool, opts fetcher.Options) *trend.Collection {
	raw, ok := src.Fetch(ctx, target, useCache, opts)
	if !ok {
		log.Printf("%s: no content from %s", name, target)
		return trend.NewCollection(name)
	}

	col := safeParse(name, ex, raw, target)
	if col == nil {
		col = trend.NewCollection(name)
	}
	col.Stamp(name)
	log.Printf("%s: parsed %d trends from %s", name, col.TotalCount(), target)
	return col
}

func safeParse(name string, ex Extractor, raw, target string) (col *trend.Collection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("%s: parse panic: %v", name, r)
			col = nil
		}
	}()

	col, err := ex.Parse(raw, target)
	if err != nil {
		log.Printf("%s: parse %s: %v", name, target, err)
		return nil
	}
	return col
}
