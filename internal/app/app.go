package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LJTian/TrendScraper/internal/cache"
	"github.com/LJTian/TrendScraper/internal/collector"
	"github.com/LJTian/TrendScraper/internal/config"
	"github.com/LJTian/TrendScraper/internal/events"
	"github.com/LJTian/TrendScraper/internal/fetcher"
	"github.com/LJTian/TrendScraper/internal/notify"
	"github.com/LJTian/TrendScraper/internal/processor"
	"github.com/LJTian/TrendScraper/internal/scheduler"
	"github.com/LJTian/TrendScraper/internal/storage"
)

const (
	AppName = "trendscraper"
	Version = "0.1.0"
)

// App 持有所有依赖，命令行与 HTTP 服务共用
type App struct {
	Config   *config.Config
	Redis    *redis.Client
	Cache    *cache.Manager
	Fetcher  *fetcher.Fetcher
	Scrapers *collector.Manager
	Notifier *notify.Discord

	// 以下依赖在 ConnectBackends 之后才可用，未配置时为 nil
	Store  *storage.Store
	Events *events.Publisher
}

// New 组装缓存、抓取与采集器；Redis 不可达时缓存自动降级
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	rdb, err := newRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	c := cache.New(rdb, cfg.CacheTTL)
	f := fetcher.New(c, cfg.RequestTimeout, cfg.UserAgent)
	m := collector.NewManager(f, cfg.DefaultScrapeURL)

	sites, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := RegisterScrapers(m, sites); err != nil {
		_ = c.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Redis:    rdb,
		Cache:    c,
		Fetcher:  f,
		Scrapers: m,
		Notifier: notify.NewDiscord(cfg.DiscordWebhookURL, cfg.DiscordUsername, cfg.RequestTimeout),
	}, nil
}

func newRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		log.Printf("warn: REDIS_URL not set, cache disabled")
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}
	return rdb, nil
}

// RegisterScrapers 注册内置采集器以及站点配置文件中的 HTML 站点
func RegisterScrapers(m *collector.Manager, sites []config.Site) error {
	m.Register("techcrunch", collector.NewTechCrunch())
	m.Register("hackernews", &collector.HackerNewsExtractor{})
	m.Register("techcrunch_feed", collector.NewTechCrunchFeed())

	for _, s := range sites {
		ex, err := collector.NewHTMLExtractor(collector.Profile{
			Name:        s.Name,
			BaseURL:     s.BaseURL,
			DefaultURL:  s.DefaultURL,
			DatePattern: s.DatePattern,
			Blocklist:   s.Blocklist,
			MaxItems:    s.MaxItems,
		})
		if err != nil {
			return fmt.Errorf("register site %s: %w", s.Name, err)
		}
		m.Register(s.Name, ex)
	}
	return nil
}

// ConnectBackends 按配置连接 Postgres 与 NATS
func (a *App) ConnectBackends() error {
	if a.Config.PostgresDSN != "" && a.Store == nil {
		store, err := storage.NewStore(a.Config.PostgresDSN, a.Redis)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		a.Store = store
	}
	if a.Config.NATSURL != "" && a.Events == nil {
		pub, err := events.Connect(a.Config.NATSURL, a.Config.NATSSubject)
		if err != nil {
			return err
		}
		a.Events = pub
	}
	return nil
}

// NewScheduler 只注入已配置的依赖
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	deps := scheduler.Deps{
		Scraper:         a.Scrapers,
		Processor:       processor.NewSimpleProcessor(),
		NotifyMaxPerRun: a.Config.NotifyMaxPerRun,
	}
	if a.Store != nil {
		deps.Saver = a.Store
	}
	if a.Notifier.Configured() {
		deps.Notifier = a.Notifier
	}
	if a.Events != nil {
		deps.Publisher = a.Events
	}
	return scheduler.New(a.Config.CronSpec, deps)
}

func (a *App) Close() error {
	a.Events.Close()
	return a.Cache.Close()
}
