// internal/pipeline/search-tool/mock.go
package searchtool

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var mockDomains = []string{
	"wikipedia.org",
	"blog.example.com",
	"news.example.com",
	"research.example.org",
	"academic.example.edu",
}

// MockProvider generates deterministic fixture results so the pipeline stays
// exercisable without search credentials. Output depends only on the term and
// the news flag.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Query(_ context.Context, term string, isNews bool) ([]Result, error) {
	slug := strings.ToLower(strings.ReplaceAll(term, " ", "-"))
	title := cases.Title(language.English).String(term)

	var results []Result
	if !isNews {
		wikiTerm := strings.ReplaceAll(term, " ", "_")
		results = append(results, Result{
			Title:    fmt.Sprintf("%s - Wikipedia", title),
			URL:      fmt.Sprintf("https://en.wikipedia.org/wiki/%s", wikiTerm),
			Snippet:  fmt.Sprintf("This Wikipedia article provides comprehensive information about %s, including its history, significance, and key concepts.", term),
			Provider: p.Name(),
			IsNews:   false,
		})
	}

	for i := 0; i < 5; i++ {
		if isNews {
			results = append(results, Result{
				Title:    fmt.Sprintf("Latest News About %s - Article %d", title, i+1),
				URL:      fmt.Sprintf("https://news.example.com/%s-article-%d", slug, i+1),
				Snippet:  fmt.Sprintf("This news article discusses recent developments in %s.", term),
				Provider: p.Name(),
				IsNews:   true,
			})
			continue
		}
		domain := mockDomains[i%len(mockDomains)]
		results = append(results, Result{
			Title:    fmt.Sprintf("Information About %s - Result %d", title, i+1),
			URL:      fmt.Sprintf("https://%s/%s-%d", domain, slug, i+1),
			Snippet:  fmt.Sprintf("This webpage contains information about %s including definitions, examples, and applications.", term),
			Provider: p.Name(),
			IsNews:   false,
		})
	}

	for i := range results {
		results[i].Rank = i
	}
	return results, nil
}
