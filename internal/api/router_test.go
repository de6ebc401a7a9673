package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/TrendScraper/internal/cache"
	"github.com/LJTian/TrendScraper/internal/collector"
	"github.com/LJTian/TrendScraper/internal/fetcher"
	"github.com/LJTian/TrendScraper/internal/notify"
	"github.com/LJTian/TrendScraper/internal/storage"
)

const techcrunchPage = `<html><body>
<div><h2><a href="/2025/03/01/ai-startup/">AI startup launches a new developer platform</a></h2></div>
</body></html>`

type staticSource struct {
	pages   map[string]string
	noCache []bool
}

func (s *staticSource) Fetch(_ context.Context, target string, useCache bool, _ fetcher.Options) (string, bool) {
	s.noCache = append(s.noCache, !useCache)
	content, ok := s.pages[target]
	return content, ok
}

type fakeStore struct {
	items []storage.Trend
	err   error
	query string
	limit int
}

func (f *fakeStore) ListTrends(_ context.Context, source string, limit int) ([]storage.Trend, error) {
	f.query, f.limit = source, limit
	return f.items, f.err
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, webhookURL string) (*gin.Engine, *Server, *staticSource) {
	t.Helper()
	src := &staticSource{pages: map[string]string{"https://techcrunch.com/": techcrunchPage}}
	m := collector.NewManager(src, "https://techcrunch.com/")
	m.Register("techcrunch", collector.NewTechCrunch())

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := &Server{
		scrapers: m,
		cache:    cache.New(rdb, time.Hour),
		notifier: notify.NewDiscord(webhookURL, "", time.Second),
	}
	r := gin.New()
	s.RegisterRoutes(r)
	return r, s, src
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestServer(t, "")
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSystemInfo(t *testing.T) {
	r, _, _ := newTestServer(t, "")
	w := do(r, http.MethodGet, "/api/v1/system/info", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		App      string          `json:"app"`
		Scrapers []string        `json:"scrapers"`
		Services map[string]bool `json:"services"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "trendscraper", data.App)
	assert.Equal(t, []string{"techcrunch"}, data.Scrapers)
	assert.True(t, data.Services["cache"])
	assert.False(t, data.Services["store"])
	assert.False(t, data.Services["discord"])
}

func TestListScrapers(t *testing.T) {
	r, _, _ := newTestServer(t, "")
	w := do(r, http.MethodGet, "/api/v1/scrapers", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"techcrunch","defaultUrl":"https://techcrunch.com/"}]`, string(decode(t, w).Data))
}

func TestScrapeByName(t *testing.T) {
	r, _, src := newTestServer(t, "")
	w := do(r, http.MethodGet, "/api/v1/scrape/techcrunch?no_cache=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Source     string `json:"source"`
		TotalCount int    `json:"total_count"`
		Trends     []struct {
			Title string   `json:"title"`
			URL   string   `json:"url"`
			Tags  []string `json:"tags"`
		} `json:"trends"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &doc))
	assert.Equal(t, "techcrunch", doc.Source)
	require.Equal(t, 1, doc.TotalCount)
	assert.Equal(t, "https://techcrunch.com/2025/03/01/ai-startup/", doc.Trends[0].URL)
	assert.Contains(t, doc.Trends[0].Tags, "ai")
	assert.Equal(t, []bool{true}, src.noCache)
}

func TestScrapeUnknownName(t *testing.T) {
	r, _, _ := newTestServer(t, "")
	w := do(r, http.MethodGet, "/api/v1/scrape/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w).Code)
}

func TestScrapeAll(t *testing.T) {
	r, _, _ := newTestServer(t, "")
	w := do(r, http.MethodGet, "/api/v1/scrape", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data map[string]struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, 1, data["techcrunch"].TotalCount)
}

func TestTrendsRequiresStore(t *testing.T) {
	r, s, _ := newTestServer(t, "")
	w := do(r, http.MethodGet, "/api/v1/trends", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	store := &fakeStore{items: []storage.Trend{{ID: "1", Title: "Stored trend headline", Source: "techcrunch"}}}
	s.store = store
	w = do(r, http.MethodGet, "/api/v1/trends?source=techcrunch&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "techcrunch", store.query)
	assert.Equal(t, 5, store.limit)

	store.err = errors.New("db down")
	w = do(r, http.MethodGet, "/api/v1/trends", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNotifyEndpoints(t *testing.T) {
	status := http.StatusNoContent
	var bodies []string
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		bodies = append(bodies, buf.String())
		w.WriteHeader(status)
	}))
	defer hook.Close()

	r, _, _ := newTestServer(t, hook.URL)

	w := do(r, http.MethodPost, "/api/v1/notify/message", `{"content":"hello"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/notify/embed", `{"title":"Release","description":"v1 is out"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/notify/trend", `{"title":"Startup raises Series A","url":"https://example.com/a","tags":["funding"]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, bodies, 3)
	assert.Contains(t, bodies[2], "New Trend: Startup raises Series A")

	w = do(r, http.MethodPost, "/api/v1/notify/message", `{"username":"no content"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/notify/trend", `{"url":"https://example.com/a"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	status = http.StatusInternalServerError
	w = do(r, http.MethodPost, "/api/v1/notify/message", `{"content":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestNotifyWithoutWebhook(t *testing.T) {
	r, _, _ := newTestServer(t, "")
	w := do(r, http.MethodPost, "/api/v1/notify/message", `{"content":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCacheEndpoints(t *testing.T) {
	r, s, _ := newTestServer(t, "")
	ctx := context.Background()
	require.True(t, s.cache.Set(ctx, "https://example.com/a", "a", nil, 0))
	require.True(t, s.cache.Set(ctx, "https://example.com/b", "b", nil, 0))

	w := do(r, http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st cache.Stats
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &st))
	assert.EqualValues(t, 2, st.NamespaceKeys)

	w = do(r, http.MethodDelete, "/api/v1/cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":2}`, string(decode(t, w).Data))

	s.cache = cache.New(nil, 0)
	w = do(r, http.MethodGet, "/api/v1/cache/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = do(r, http.MethodDelete, "/api/v1/cache", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
