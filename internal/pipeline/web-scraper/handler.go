// internal/pipeline/web-scraper/handler.go
package webscraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	commonerrors "web-research-agent/internal/common/errors"
	commonhttp "web-research-agent/internal/common/http"
	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/common/metrics"
	searchtool "web-research-agent/internal/pipeline/search-tool"
)

const StageName = "scraping"

const maxPageBytes = 4 * 1024 * 1024

type Scraper struct {
	config *Config
	client *commonhttp.Client
	robots *robotsCache
	logger logger.Logger
}

func NewScraper(config *Config, log logger.Logger) *Scraper {
	client := commonhttp.NewClientWithUserAgent(config.Timeout, config.UserAgent)
	return &Scraper{
		config: config,
		client: client,
		robots: newRobotsCache(client, config.UserAgent),
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Scrape fetches every search result concurrently, bounded by
// MaxConcurrency. The output always has one Content per input, at the same
// position; failures become records rather than dropped entries, so the
// method never returns an error.
func (s *Scraper) Scrape(ctx context.Context, results []searchtool.Result) []Content {
	contents := make([]Content, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)
	for i, result := range results {
		g.Go(func() error {
			contents[i] = s.scrapeOne(gctx, result)
			return nil
		})
	}
	g.Wait()

	usable := 0
	for i := range contents {
		metrics.PagesScraped.WithLabelValues(contents[i].Method).Inc()
		if contents[i].Usable() {
			usable++
		}
	}
	s.logger.Info("scrape completed", map[string]interface{}{
		"pages":  len(contents),
		"usable": usable,
	})
	return contents
}

func (s *Scraper) scrapeOne(ctx context.Context, result searchtool.Result) Content {
	content := Content{
		Result:    result,
		FetchedAt: time.Now().UTC(),
	}

	if s.config.RespectRobots && !s.robots.Allowed(ctx, result.URL) {
		s.logger.Info("skipping disallowed url", map[string]interface{}{
			"url": result.URL,
		})
		content.Method = MethodFailed
		content.FailReason = commonerrors.ReasonPolicyDenied
		return content
	}

	body, err := s.fetch(ctx, result.URL)
	if err != nil {
		s.logger.Warn("page fetch failed", map[string]interface{}{
			"url":   result.URL,
			"error": err.Error(),
		})
		content.Method = MethodFailed
		content.FailReason = commonerrors.ReasonScrapeFailed
		return content
	}

	raw, text, method := s.extract(body)
	if text == "" {
		content.Method = MethodFailed
		content.FailReason = commonerrors.ReasonScrapeFailed
		return content
	}

	content.RawText, _ = truncate(raw, s.config.MaxContentChars)
	content.CleanedText, content.Truncated = truncate(text, s.config.MaxContentChars)
	content.Method = method
	return content
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, commonerrors.NewFetchFailedError(pageURL, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, commonerrors.NewFetchFailedError(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, commonerrors.NewFetchFailedError(pageURL,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, commonerrors.NewFetchFailedError(pageURL,
			fmt.Errorf("unsupported content type %q", ct))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, commonerrors.NewFetchFailedError(pageURL, err)
	}
	return body, nil
}

// extract tries structured article extraction first and falls back to raw
// body text when the page yields too little. It returns the text both as
// extracted and after cleaning, plus the method that produced it.
func (s *Scraper) extract(body []byte) (raw, cleaned, method string) {
	if article, err := extractArticle(bytes.NewReader(body)); err == nil {
		cleaned = cleanText(article)
		if len(cleaned) >= s.config.MinContentChars {
			return article, cleaned, MethodPrimary
		}
	}

	bodyText, err := extractBodyText(bytes.NewReader(body))
	if err != nil {
		return "", "", MethodFailed
	}
	cleaned = cleanText(bodyText)
	if len(cleaned) < s.config.MinContentChars {
		return "", "", MethodFailed
	}
	return bodyText, cleaned, MethodFallback
}
