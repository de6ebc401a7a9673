package fetcher

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/LJTian/TrendScraper/internal/cache"
	"github.com/gocolly/colly/v2"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "trendscraper/0.1.0"
)

// Options 单次请求的附加参数，同时参与缓存 key 计算
type Options struct {
	Headers map[string]string
	Query   map[string]string
}

// CacheParams 将请求参数展开为缓存参数，不同参数的请求不会共用缓存
func (o Options) CacheParams() map[string]string {
	if len(o.Headers) == 0 && len(o.Query) == 0 {
		return nil
	}
	params := make(map[string]string, len(o.Headers)+len(o.Query))
	for k, v := range o.Headers {
		params["header:"+k] = v
	}
	for k, v := range o.Query {
		params["query:"+k] = v
	}
	return params
}

// Fetcher 先查缓存，未命中再通过 colly 拉取页面
type Fetcher struct {
	cache     *cache.Manager
	timeout   time.Duration
	userAgent string
}

func New(c *cache.Manager, timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{cache: c, timeout: timeout, userAgent: userAgent}
}

// Fetch 返回页面原始内容；请求失败或状态码非 2xx 时返回 false，不重试
func (f *Fetcher) Fetch(ctx context.Context, target string, useCache bool, opts Options) (string, bool) {
	params := opts.CacheParams()
	if useCache {
		if content, ok := f.cache.Get(ctx, target, params); ok {
			log.Printf("fetcher: cache hit %s", target)
			return content, true
		}
	}

	if err := ctx.Err(); err != nil {
		log.Printf("fetcher: %s: %v", target, err)
		return "", false
	}

	reqURL, err := withQuery(target, opts.Query)
	if err != nil {
		log.Printf("fetcher: invalid url %s: %v", target, err)
		return "", false
	}

	// 所有状态码都进入 OnResponse，由下方统一判断；响应体不限大小
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(0),
	)
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range opts.Headers {
			r.Headers.Set(k, v)
		}
	})

	var (
		body   string
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})

	if err := c.Visit(reqURL); err != nil {
		log.Printf("fetcher: get %s: %v", target, err)
		return "", false
	}
	if status < 200 || status > 299 {
		log.Printf("fetcher: get %s: unexpected status %d", target, status)
		return "", false
	}
	log.Printf("fetcher: fetched %s (%d bytes)", target, len(body))

	if useCache {
		f.cache.Set(ctx, target, body, params, 0)
	}
	return body, true
}

func withQuery(target string, query map[string]string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if len(query) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
