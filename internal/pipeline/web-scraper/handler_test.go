// internal/pipeline/web-scraper/handler_test.go
package webscraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"web-research-agent/internal/common/logger"
	searchtool "web-research-agent/internal/pipeline/search-tool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *Config {
	return &Config{
		UserAgent:       "WebResearchAgent/1.0",
		Timeout:         5 * time.Second,
		MaxConcurrency:  4,
		MaxContentChars: 10000,
		MinContentChars: 20,
		RespectRobots:   true,
	}
}

const articleHTML = `<html><head><title>EV Impact</title></head><body>
<nav>Home | About</nav>
<article>
<h1>Electric Vehicles and the Grid</h1>
<p>Electric vehicles shift emissions from tailpipes to power plants, so their net impact depends on the local energy mix.</p>
<p>Battery production remains the most carbon-intensive phase of an EV lifecycle.</p>
</article>
<footer>Copyright 2026</footer>
</body></html>`

func TestScrapeExtractsArticleContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	scraper := NewScraper(testConfig(), logger.NewNoOpLogger())
	contents := scraper.Scrape(context.Background(), []searchtool.Result{
		{Title: "EV Impact", URL: server.URL + "/article"},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, MethodPrimary, contents[0].Method)
	assert.True(t, contents[0].Usable())
	assert.Contains(t, contents[0].CleanedText, "Electric Vehicles and the Grid")
	assert.Contains(t, contents[0].CleanedText, "net impact depends on the local energy mix")
	assert.NotContains(t, contents[0].CleanedText, "Copyright 2026")
	assert.NotContains(t, contents[0].CleanedText, "Home | About")
	assert.Contains(t, contents[0].RawText, "net impact depends on the local energy mix")
}

func TestScrapeRespectsRobotsWithoutFetchingPage(t *testing.T) {
	var pageFetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		pageFetches.Add(1)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	scraper := NewScraper(testConfig(), logger.NewNoOpLogger())
	contents := scraper.Scrape(context.Background(), []searchtool.Result{
		{URL: server.URL + "/private/report"},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, MethodFailed, contents[0].Method)
	assert.Equal(t, "policy-denied", contents[0].FailReason)
	assert.Zero(t, pageFetches.Load(), "disallowed URL must not be fetched")
}

func TestScrapeFailuresProduceRecordsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/ok":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(articleHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	scraper := NewScraper(testConfig(), logger.NewNoOpLogger())
	contents := scraper.Scrape(context.Background(), []searchtool.Result{
		{URL: server.URL + "/gone"},
		{URL: server.URL + "/ok"},
		{URL: server.URL + "/also-gone"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, MethodFailed, contents[0].Method)
	assert.Equal(t, "scrape-failed", contents[0].FailReason)
	assert.Equal(t, server.URL+"/gone", contents[0].Result.URL)

	assert.Equal(t, MethodPrimary, contents[1].Method)
	assert.Equal(t, server.URL+"/ok", contents[1].Result.URL)

	assert.Equal(t, MethodFailed, contents[2].Method)
	assert.Equal(t, server.URL+"/also-gone", contents[2].Result.URL)
}

func TestScrapeFallsBackToBodyText(t *testing.T) {
	page := `<html><body><div>This page keeps all of its prose in plain divs,
	which the structured extractor does not collect, yet the text is long
	enough to be worth analyzing on its own.</div></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer server.Close()

	scraper := NewScraper(testConfig(), logger.NewNoOpLogger())
	contents := scraper.Scrape(context.Background(), []searchtool.Result{
		{URL: server.URL + "/plain"},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, MethodFallback, contents[0].Method)
	assert.Contains(t, contents[0].CleanedText, "plain divs")
}

func TestScrapeTruncatesLongContent(t *testing.T) {
	long := "<html><body><article><p>" + strings.Repeat("word ", 5000) + "</p></article></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(long))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxContentChars = 500
	scraper := NewScraper(cfg, logger.NewNoOpLogger())
	contents := scraper.Scrape(context.Background(), []searchtool.Result{
		{URL: server.URL + "/long"},
	})

	require.Len(t, contents, 1)
	assert.True(t, contents[0].Truncated)
	assert.LessOrEqual(t, len(contents[0].CleanedText), 500)
}

func TestRobotsFetchedOncePerHost(t *testing.T) {
	var robotsFetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsFetches.Add(1)
			w.Write([]byte("User-agent: *\nDisallow:\n"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	scraper := NewScraper(testConfig(), logger.NewNoOpLogger())
	results := make([]searchtool.Result, 8)
	for i := range results {
		results[i] = searchtool.Result{URL: fmt.Sprintf("%s/page-%d", server.URL, i)}
	}

	contents := scraper.Scrape(context.Background(), results)

	require.Len(t, contents, 8)
	assert.Equal(t, int64(1), robotsFetches.Load(), "concurrent first access collapses to one policy fetch")
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 400)

	cut, truncated := truncate(text, 101)

	assert.True(t, truncated)
	assert.True(t, utf8.ValidString(cut), "cut must not split a multi-byte rune")
	assert.LessOrEqual(t, len(cut), 101)
}

func TestCleanTextDropsFragmentsAndDuplicates(t *testing.T) {
	raw := "A meaningful paragraph about renewable energy.\n\n\n\nok\n\nA meaningful paragraph about renewable energy.\n\nA second distinct paragraph."

	cleaned := cleanText(raw)

	assert.Equal(t, 1, strings.Count(cleaned, "A meaningful paragraph about renewable energy."))
	assert.NotContains(t, cleaned, "ok")
	assert.Contains(t, cleaned, "A second distinct paragraph.")
}

func TestParseRobots(t *testing.T) {
	body := `
User-agent: OtherBot
Disallow: /

User-agent: *
Disallow: /admin/
Disallow: /private/

User-agent: WebResearchAgent
Disallow: /agent-only/
`
	rules := parseRobots(strings.NewReader(body), "WebResearchAgent/1.0")

	assert.True(t, rules.allows("/articles/ev"))
	assert.False(t, rules.allows("/admin/settings"))
	assert.False(t, rules.allows("/private/x"))
	assert.False(t, rules.allows("/agent-only/data"))
}
