package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/TrendScraper/internal/app"
	"github.com/LJTian/TrendScraper/internal/cache"
	"github.com/LJTian/TrendScraper/internal/collector"
	"github.com/LJTian/TrendScraper/internal/notify"
	"github.com/LJTian/TrendScraper/internal/storage"
	"github.com/LJTian/TrendScraper/internal/trend"
)

// TrendLister 历史趋势查询，生产环境为 storage.Store
type TrendLister interface {
	ListTrends(ctx context.Context, source string, limit int) ([]storage.Trend, error)
}

type Server struct {
	scrapers *collector.Manager
	cache    *cache.Manager
	notifier *notify.Discord
	store    TrendLister
}

func NewServer(a *app.App) *Server {
	s := &Server{
		scrapers: a.Scrapers,
		cache:    a.Cache,
		notifier: a.Notifier,
	}
	if a.Store != nil {
		s.store = a.Store
	}
	return s
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/system/info", s.systemInfo)
		v1.GET("/scrapers", s.listScrapers)
		v1.GET("/scrape", s.scrapeAll)
		v1.GET("/scrape/:name", s.scrape)
		v1.GET("/trends", s.listTrends)

		v1.POST("/notify/message", s.notifyMessage)
		v1.POST("/notify/embed", s.notifyEmbed)
		v1.POST("/notify/trend", s.notifyTrend)

		v1.GET("/cache/stats", s.cacheStats)
		v1.DELETE("/cache", s.clearCache)
	}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) systemInfo(c *gin.Context) {
	ok(c, gin.H{
		"app":      app.AppName,
		"version":  app.Version,
		"scrapers": s.scrapers.List(),
		"services": gin.H{
			"cache":   s.cache.Ping(c.Request.Context()),
			"store":   s.store != nil,
			"discord": s.notifier.Configured(),
		},
	})
}

func (s *Server) listScrapers(c *gin.Context) {
	names := s.scrapers.List()
	out := make([]gin.H, 0, len(names))
	for _, name := range names {
		out = append(out, gin.H{"name": name, "defaultUrl": s.scrapers.DefaultURL(name)})
	}
	ok(c, out)
}

func scrapeOptions(c *gin.Context) collector.ScrapeOptions {
	noCache, _ := strconv.ParseBool(c.DefaultQuery("no_cache", "false"))
	return collector.ScrapeOptions{NoCache: noCache}
}

func (s *Server) scrape(c *gin.Context) {
	name := c.Param("name")
	col, err := s.scrapers.Scrape(c.Request.Context(), name, c.Query("url"), scrapeOptions(c))
	if errors.Is(err, collector.ErrNotFound) {
		fail(c, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, col.Document())
}

func (s *Server) scrapeAll(c *gin.Context) {
	results := s.scrapers.ScrapeAll(c.Request.Context(), c.Query("url"), scrapeOptions(c))
	out := make(map[string]trend.Document, len(results))
	for name, col := range results {
		out[name] = col.Document()
	}
	ok(c, out)
}

func (s *Server) listTrends(c *gin.Context) {
	if s.store == nil {
		fail(c, http.StatusServiceUnavailable, "store_unavailable", "trend history requires POSTGRES_DSN")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	items, err := s.store.ListTrends(c.Request.Context(), c.Query("source"), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, items)
}

func (s *Server) requireNotifier(c *gin.Context) bool {
	if !s.notifier.Configured() {
		fail(c, http.StatusServiceUnavailable, "discord_unavailable", "discord webhook not configured")
		return false
	}
	return true
}

func (s *Server) deliver(c *gin.Context, send func(ctx context.Context) error) {
	if err := send(c.Request.Context()); err != nil {
		fail(c, http.StatusBadGateway, "delivery_failed", err.Error())
		return
	}
	ok(c, gin.H{"sent": true})
}

func (s *Server) notifyMessage(c *gin.Context) {
	if !s.requireNotifier(c) {
		return
	}
	var m notify.Message
	if err := c.ShouldBindJSON(&m); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	s.deliver(c, func(ctx context.Context) error { return s.notifier.SendMessage(ctx, m) })
}

func (s *Server) notifyEmbed(c *gin.Context) {
	if !s.requireNotifier(c) {
		return
	}
	var e notify.Embed
	if err := c.ShouldBindJSON(&e); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	s.deliver(c, func(ctx context.Context) error { return s.notifier.SendEmbed(ctx, e) })
}

func (s *Server) notifyTrend(c *gin.Context) {
	if !s.requireNotifier(c) {
		return
	}
	var r trend.Record
	if err := c.ShouldBindJSON(&r); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if r.Title == "" {
		fail(c, http.StatusBadRequest, "bad_request", "title is required")
		return
	}
	s.deliver(c, func(ctx context.Context) error { return s.notifier.SendTrend(ctx, r) })
}

func (s *Server) cacheStats(c *gin.Context) {
	st, err := s.cache.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusServiceUnavailable, "cache_unavailable", err.Error())
		return
	}
	ok(c, st)
}

func (s *Server) clearCache(c *gin.Context) {
	if !s.cache.Enabled() {
		fail(c, http.StatusServiceUnavailable, "cache_unavailable", "redis not configured")
		return
	}
	ok(c, gin.H{"deleted": s.cache.ClearAll(c.Request.Context(), "")})
}
