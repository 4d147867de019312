// internal/pipeline/search-tool/handler.go
package searchtool

import (
	"context"
	"encoding/json"
	"fmt"

	"web-research-agent/internal/common/cache"
	commonerrors "web-research-agent/internal/common/errors"
	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/common/metrics"
	queryanalyzer "web-research-agent/internal/pipeline/query-analyzer"
)

const StageName = "searching"

// Cache is the optional result cache surface. A Get error falls through to
// the providers either way, but only plain misses do so silently; outages are
// logged. Set failures are logged and ignored.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}) error
}

type Tool struct {
	config    *Config
	providers []Provider
	cache     Cache
	logger    logger.Logger
}

// NewTool assembles the search stage over an ordered provider chain. Earlier
// providers are preferred; later ones are fallbacks. cache may be nil.
func NewTool(config *Config, providers []Provider, cache Cache, log logger.Logger) *Tool {
	return &Tool{
		config:    config,
		providers: providers,
		cache:     cache,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Search issues one provider query per search term, merges the per-term
// results in term order, deduplicates by URL keeping the first occurrence,
// and truncates to limit. It returns an error only when every provider failed
// for every term and nothing was collected.
func (t *Tool) Search(ctx context.Context, plan *queryanalyzer.QueryPlan, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = t.config.ResultLimit
	}
	isNews := plan.QueryType == queryanalyzer.QueryTypeNews

	merged := make([]Result, 0, limit)
	seen := make(map[string]bool)
	var lastErr error

	for _, term := range plan.SearchTerms {
		if len(merged) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			if len(merged) > 0 {
				return merged, nil
			}
			return nil, commonerrors.NewSearchProviderExhaustedError(err)
		}

		results, err := t.queryTerm(ctx, term, isNews)
		if err != nil {
			lastErr = err
			t.logger.Warn("all providers failed for term", map[string]interface{}{
				"term":  term,
				"error": err.Error(),
			})
			continue
		}

		for _, r := range results {
			if len(merged) >= limit {
				break
			}
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			merged = append(merged, r)
		}
	}

	if len(merged) == 0 && lastErr != nil {
		return nil, commonerrors.NewSearchProviderExhaustedError(lastErr)
	}

	t.logger.Info("search completed", map[string]interface{}{
		"terms":   len(plan.SearchTerms),
		"results": len(merged),
		"is_news": isNews,
	})
	return merged, nil
}

// queryTerm walks the provider chain for one term, falling through on
// provider errors. A successful call ends the walk even when it returned
// nothing.
func (t *Tool) queryTerm(ctx context.Context, term string, isNews bool) ([]Result, error) {
	key := cacheKey(term, isNews)
	if cached, ok := t.cacheGet(ctx, key); ok {
		return cached, nil
	}

	var lastErr error
	for i, provider := range t.providers {
		if i > 0 {
			metrics.ProviderFallbacks.WithLabelValues("search", provider.Name()).Inc()
		}

		results, err := provider.Query(ctx, term, isNews)
		if err != nil {
			lastErr = err
			t.logger.Warn("search provider failed", map[string]interface{}{
				"provider": provider.Name(),
				"term":     term,
				"error":    err.Error(),
			})
			continue
		}

		t.cacheSet(ctx, key, results)
		return results, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no search providers configured")
	}
	return nil, lastErr
}

func cacheKey(term string, isNews bool) string {
	if isNews {
		return "search:news:" + term
	}
	return "search:web:" + term
}

func (t *Tool) cacheGet(ctx context.Context, key string) ([]Result, bool) {
	if t.cache == nil {
		return nil, false
	}
	raw, err := t.cache.Get(ctx, key)
	if err != nil {
		if !cache.IsMiss(err) {
			t.logger.Warn("cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}
	var results []Result
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		t.logger.Warn("discarding malformed cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return results, true
}

func (t *Tool) cacheSet(ctx context.Context, key string, results []Result) {
	if t.cache == nil || len(results) == 0 {
		return
	}
	encoded, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := t.cache.Set(ctx, key, string(encoded)); err != nil {
		t.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
