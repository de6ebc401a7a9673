package collector

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anchorPage = `<html><body>
<nav><a href="/2025/01/01/subscribe/">Subscribe to our newsletter today</a></nav>
<div class="river">
  <div class="post-block">
    <h2><a href="/2025/01/02/startup-raises-series-a/">Startup raises Series A to build AI agents</a></h2>
    <div class="post-block__content">
      <p class="post-excerpt">The company plans to use the new funding to expand its engineering team.</p>
    </div>
  </div>
  <div class="post-block">
    <h2><a href="https://techcrunch.com/2025/01/03/bitcoin-rally/">Bitcoin rally continues into the new year</a></h2>
  </div>
  <a href="/2025/01/04/short/">Too short</a>
  <a href="/2025/01/02/startup-raises-series-a/">Startup raises Series A to build AI agents</a>
  <a href="/2025/01/05/tc/">TechCrunch Disrupt tickets on sale</a>
</div>
<article><h2><a href="/about/">Container only headline should not appear</a></h2></article>
</body></html>`

const containerPage = `<html><body>
<article>
  <h2><a href="/news/open-source-llm">Open source LLM tops the leaderboard</a></h2>
  <p class="excerpt">A community model has overtaken several commercial offerings this week.</p>
</article>
<article>
  <h3><a href="https://example.com/news/payments">Payments company expands to Europe</a></h3>
  <p>Short</p>
  <p>The fintech firm said it will open offices in Berlin and Paris next quarter.</p>
</article>
<article>
  <h2><a href="/news/tiny">Tiny</a></h2>
</article>
<article>
  <h2><a href="relative/path">Relative link headline that is dropped</a></h2>
</article>
<div class="card"><h2><a href="/news/card">Card headline never considered</a></h2></div>
</body></html>`

func TestAnchorScan(t *testing.T) {
	col, err := NewTechCrunch().Parse(anchorPage, "https://techcrunch.com/")
	require.NoError(t, err)

	trends := col.Trends()
	require.Len(t, trends, 2)

	first := trends[0]
	assert.Equal(t, "Startup raises Series A to build AI agents", first.Title)
	assert.Equal(t, "https://techcrunch.com/2025/01/02/startup-raises-series-a/", first.URL)
	assert.Equal(t, "The company plans to use the new funding to expand its engineering team.", first.Summary)
	assert.Equal(t, []string{"ai", "startup", "funding"}, first.Tags)

	assert.Equal(t, "Bitcoin rally continues into the new year", trends[1].Title)
	assert.Equal(t, "https://techcrunch.com/2025/01/03/bitcoin-rally/", trends[1].URL)

	for _, r := range trends {
		assert.NotContains(t, r.Title, "Container only")
		assert.NotContains(t, strings.ToLower(r.Title), "subscribe")
	}
}

func TestContainerScanWhenNoAnchorsQualify(t *testing.T) {
	ex, err := NewHTMLExtractor(Profile{Name: "example"})
	require.NoError(t, err)

	col, err := ex.Parse(containerPage, "https://example.com/front")
	require.NoError(t, err)

	trends := col.Trends()
	require.Len(t, trends, 2)

	assert.Equal(t, "Open source LLM tops the leaderboard", trends[0].Title)
	assert.Equal(t, "https://example.com/news/open-source-llm", trends[0].URL)
	assert.Equal(t, "A community model has overtaken several commercial offerings this week.", trends[0].Summary)
	assert.Contains(t, trends[0].Tags, "ai")

	assert.Equal(t, "https://example.com/news/payments", trends[1].URL)
	assert.Equal(t, "The fintech firm said it will open offices in Berlin and Paris next quarter.", trends[1].Summary)
	assert.Contains(t, trends[1].Tags, "fintech")
}

func TestContainerScanFallsBackToDateAnchor(t *testing.T) {
	page := `<html><body>
<div class="story"><span>Space</span><a href="/2024/05/mars/">Mars landing</a></div>
</body></html>`
	ex, err := NewHTMLExtractor(Profile{Name: "space", BaseURL: "https://space.example"})
	require.NoError(t, err)

	col, err := ex.Parse(page, "https://other.example/")
	require.NoError(t, err)

	trends := col.Trends()
	require.Len(t, trends, 1)
	assert.Equal(t, "Mars landing", trends[0].Title)
	assert.Equal(t, "https://space.example/2024/05/mars/", trends[0].URL)
	assert.Equal(t, "", trends[0].Summary)
}

func TestAnchorScanCapsAtMaxItems(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, `<a href="/2025/01/%02d/story-%d/">Headline number %02d for the cap test</a>`, i, i, i)
	}
	b.WriteString("</body></html>")

	col, err := NewTechCrunch().Parse(b.String(), "https://techcrunch.com/")
	require.NoError(t, err)
	require.Equal(t, 15, col.TotalCount())
	assert.Equal(t, "Headline number 01 for the cap test", col.Trends()[0].Title)
	assert.Equal(t, "Headline number 15 for the cap test", col.Trends()[14].Title)
}

func TestAnchorScanDedupsResolvedLinksBeforeCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(`<a href="./2025/01/00/unresolvable/">Relative headline that cannot resolve</a>`)
	for i := 1; i <= 17; i++ {
		fmt.Fprintf(&b, `<a href="/2025/01/%02d/story/">Headline number %02d for the dedup test</a>`, i, i)
		fmt.Fprintf(&b, `<a href="https://TechCrunch.com/2025/01/%02d/story/#comments">Headline number %02d for the dedup test</a>`, i, i)
	}
	b.WriteString("</body></html>")

	col, err := NewTechCrunch().Parse(b.String(), "https://techcrunch.com/")
	require.NoError(t, err)
	require.Equal(t, 15, col.TotalCount())

	trends := col.Trends()
	assert.Equal(t, "https://techcrunch.com/2025/01/01/story/", trends[0].URL)
	assert.Equal(t, "https://techcrunch.com/2025/01/15/story/", trends[14].URL)
}

func TestNoShortTitlesEmitted(t *testing.T) {
	for _, page := range []string{anchorPage, containerPage} {
		ex, err := NewHTMLExtractor(Profile{Name: "any"})
		require.NoError(t, err)
		col, err := ex.Parse(page, "https://example.com/")
		require.NoError(t, err)
		for _, r := range col.Trends() {
			assert.GreaterOrEqual(t, len([]rune(r.Title)), 10)
		}
	}
}

func TestParseEmptyDocument(t *testing.T) {
	col, err := NewTechCrunch().Parse("", "https://techcrunch.com/")
	require.NoError(t, err)
	assert.Equal(t, 0, col.TotalCount())
}

func TestNewHTMLExtractorValidation(t *testing.T) {
	_, err := NewHTMLExtractor(Profile{})
	assert.Error(t, err)

	_, err = NewHTMLExtractor(Profile{Name: "bad", DatePattern: "(unclosed"})
	assert.Error(t, err)

	_, err = NewHTMLExtractor(Profile{Name: "bad", BaseURL: "not a url"})
	assert.Error(t, err)

	ex, err := NewHTMLExtractor(Profile{Name: "ok", DefaultURL: "https://ok.example/"})
	require.NoError(t, err)
	assert.Equal(t, "https://ok.example/", ex.DefaultURL())
	assert.Equal(t, "ok", ex.Name())
}

func TestResolveHref(t *testing.T) {
	ex, err := NewHTMLExtractor(Profile{Name: "x", BaseURL: "https://techcrunch.com"})
	require.NoError(t, err)
	base := ex.siteBase("https://ignored.example/")

	cases := []struct {
		href string
		want string
		ok   bool
	}{
		{"https://techcrunch.com/2025/01/a/", "https://techcrunch.com/2025/01/a/", true},
		{"/2025/01/b/", "https://techcrunch.com/2025/01/b/", true},
		{"2025/01/c/", "", false},
		{"javascript:void(0)", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := resolveHref(c.href, base)
		if ok != c.ok || got != c.want {
			t.Fatalf("resolveHref(%q) = %q, %v; want %q, %v", c.href, got, ok, c.want, c.ok)
		}
	}

	_, ok := resolveHref("/a", nil)
	assert.False(t, ok)
}
