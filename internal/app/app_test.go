package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/TrendScraper/internal/collector"
	"github.com/LJTian/TrendScraper/internal/config"
)

func testConfig(redisURL string) *config.Config {
	return &config.Config{
		RedisURL:         redisURL,
		CacheTTL:         time.Hour,
		RequestTimeout:   time.Second,
		UserAgent:        "test",
		DefaultScrapeURL: "https://techcrunch.com/",
		CronSpec:         "*/30 * * * *",
		NotifyMaxPerRun:  5,
	}
}

func TestNewWiresCacheAndScrapers(t *testing.T) {
	mr := miniredis.RunT(t)
	a, err := New(context.Background(), testConfig("redis://"+mr.Addr()))
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Cache.Enabled())
	assert.True(t, a.Cache.Ping(context.Background()))
	assert.Equal(t, []string{"techcrunch", "hackernews", "techcrunch_feed"}, a.Scrapers.List())
	assert.False(t, a.Notifier.Configured())
	assert.Nil(t, a.Store)
	assert.Nil(t, a.Events)
}

func TestNewWithoutRedis(t *testing.T) {
	a, err := New(context.Background(), testConfig(""))
	require.NoError(t, err)
	defer a.Close()
	assert.False(t, a.Cache.Enabled())
}

func TestNewRejectsBadRedisURL(t *testing.T) {
	_, err := New(context.Background(), testConfig("memcached://nope"))
	assert.Error(t, err)
}

func TestNewLoadsSitesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sites:\n  - name: example\n    base_url: https://example.com\n    default_url: https://example.com/news\n"), 0o644))

	cfg := testConfig("")
	cfg.SitesFile = path
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{"techcrunch", "hackernews", "techcrunch_feed", "example"}, a.Scrapers.List())
	assert.Equal(t, "https://example.com/news", a.Scrapers.DefaultURL("example"))
}

func TestRegisterScrapersRejectsBadSite(t *testing.T) {
	m := collector.NewManager(nil, "")
	err := RegisterScrapers(m, []config.Site{{Name: "bad", BaseURL: "https://x.example", DatePattern: "(["}})
	assert.Error(t, err)
}

func TestNewSchedulerWithoutBackends(t *testing.T) {
	a, err := New(context.Background(), testConfig(""))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.ConnectBackends())
	s, err := a.NewScheduler()
	require.NoError(t, err)
	assert.NotNil(t, s)
}
