// internal/pipeline/search-tool/handler_test.go
package searchtool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web-research-agent/internal/common/logger"
	queryanalyzer "web-research-agent/internal/pipeline/query-analyzer"
)

type stubProvider struct {
	name    string
	results map[string][]Result
	err     error
	calls   int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Query(_ context.Context, term string, _ bool) ([]Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.results[term], nil
}

type memoryCache struct {
	values map[string]string
	gets   int
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.gets++
	v, ok := c.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	c.sets++
	c.values[key] = value.(string)
	return nil
}

func testPlan(terms ...string) *queryanalyzer.QueryPlan {
	return &queryanalyzer.QueryPlan{
		OriginalQuery: terms[0],
		QueryType:     queryanalyzer.QueryTypeFactual,
		SearchTerms:   terms,
	}
}

func TestSearchMergesAndDeduplicatesByURL(t *testing.T) {
	provider := &stubProvider{
		name: "stub",
		results: map[string][]Result{
			"a": {
				{Title: "First", URL: "https://example.com/1", Rank: 0},
				{Title: "Second", URL: "https://example.com/2", Rank: 1},
			},
			"b": {
				{Title: "Duplicate", URL: "https://example.com/1", Rank: 0},
				{Title: "Third", URL: "https://example.com/3", Rank: 1},
			},
		},
	}
	tool := NewTool(&Config{ResultLimit: 10}, []Provider{provider}, nil, logger.NewNoOpLogger())

	results, err := tool.Search(context.Background(), testPlan("a", "b"), 10)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "First", results[0].Title)
	assert.Equal(t, "Second", results[1].Title)
	assert.Equal(t, "Third", results[2].Title)
}

func TestSearchTruncatesToLimit(t *testing.T) {
	tool := NewTool(&Config{ResultLimit: 10}, []Provider{NewMockProvider()}, nil, logger.NewNoOpLogger())

	results, err := tool.Search(context.Background(), testPlan("solar power"), 3)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchFallsThroughToNextProvider(t *testing.T) {
	failing := &stubProvider{name: "primary", err: errors.New("quota exceeded")}
	backup := &stubProvider{
		name: "backup",
		results: map[string][]Result{
			"a": {{Title: "Backup", URL: "https://example.com/backup", Rank: 0}},
		},
	}
	tool := NewTool(&Config{ResultLimit: 10}, []Provider{failing, backup}, nil, logger.NewNoOpLogger())

	results, err := tool.Search(context.Background(), testPlan("a"), 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Backup", results[0].Title)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestSearchErrorsWhenAllProvidersFail(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("boom")}
	second := &stubProvider{name: "second", err: errors.New("also boom")}
	tool := NewTool(&Config{ResultLimit: 10}, []Provider{first, second}, nil, logger.NewNoOpLogger())

	results, err := tool.Search(context.Background(), testPlan("a", "b"), 10)

	assert.Error(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 2, first.calls)
	assert.Equal(t, 2, second.calls)
}

func TestSearchServesFromCacheWithoutProviderCall(t *testing.T) {
	cached := []Result{{Title: "Cached", URL: "https://example.com/cached", Provider: "serpapi"}}
	encoded, err := json.Marshal(cached)
	require.NoError(t, err)

	cache := newMemoryCache()
	cache.values[cacheKey("a", false)] = string(encoded)

	provider := &stubProvider{name: "stub"}
	tool := NewTool(&Config{ResultLimit: 10}, []Provider{provider}, cache, logger.NewNoOpLogger())

	results, err := tool.Search(context.Background(), testPlan("a"), 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Cached", results[0].Title)
	assert.Zero(t, provider.calls)
}

func TestSearchPopulatesCacheOnSuccess(t *testing.T) {
	cache := newMemoryCache()
	provider := &stubProvider{
		name: "stub",
		results: map[string][]Result{
			"a": {{Title: "Fresh", URL: "https://example.com/fresh", Rank: 0}},
		},
	}
	tool := NewTool(&Config{ResultLimit: 10}, []Provider{provider}, cache, logger.NewNoOpLogger())

	_, err := tool.Search(context.Background(), testPlan("a"), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.values, cacheKey("a", false))
}

type outageCache struct {
	gets int
}

func (c *outageCache) Get(_ context.Context, _ string) (string, error) {
	c.gets++
	return "", errors.New("connection refused")
}

func (c *outageCache) Set(_ context.Context, _ string, _ interface{}) error {
	return errors.New("connection refused")
}

func TestSearchCacheOutageFallsThroughToProviders(t *testing.T) {
	cache := &outageCache{}
	provider := &stubProvider{
		name: "stub",
		results: map[string][]Result{
			"a": {{Title: "Live", URL: "https://example.com/live", Rank: 0}},
		},
	}
	tool := NewTool(&Config{ResultLimit: 10}, []Provider{provider}, cache, logger.NewNoOpLogger())

	results, err := tool.Search(context.Background(), testPlan("a"), 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Live", results[0].Title)
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 1, provider.calls)
}

func TestMockProviderIsDeterministic(t *testing.T) {
	provider := NewMockProvider()

	first, err := provider.Query(context.Background(), "quantum computing", false)
	require.NoError(t, err)
	second, err := provider.Query(context.Background(), "quantum computing", false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.NotEmpty(t, first)
	assert.Equal(t, "https://en.wikipedia.org/wiki/quantum_computing", first[0].URL)
	assert.Equal(t, 0, first[0].Rank)
}

func TestMockProviderNewsResults(t *testing.T) {
	provider := NewMockProvider()

	results, err := provider.Query(context.Background(), "market crash", true)

	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.True(t, r.IsNews)
		assert.Contains(t, r.URL, "news.example.com")
	}
}
