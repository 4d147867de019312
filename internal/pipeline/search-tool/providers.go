// internal/pipeline/search-tool/providers.go
package searchtool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	commonerrors "web-research-agent/internal/common/errors"
	commonhttp "web-research-agent/internal/common/http"
)

// Provider issues one search request for a single term. Implementations must
// be safe for concurrent use.
type Provider interface {
	Name() string
	Query(ctx context.Context, term string, isNews bool) ([]Result, error)
}

// SerpAPIProvider queries the SerpAPI Google endpoint.
type SerpAPIProvider struct {
	baseURL string
	apiKey  string
	client  *commonhttp.Client
}

func NewSerpAPIProvider(baseURL, apiKey string, client *commonhttp.Client) *SerpAPIProvider {
	return &SerpAPIProvider{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (p *SerpAPIProvider) Name() string { return "serpapi" }

func (p *SerpAPIProvider) Query(ctx context.Context, term string, isNews bool) ([]Result, error) {
	params := url.Values{}
	params.Set("api_key", p.apiKey)
	params.Set("q", term)
	params.Set("gl", "us")
	params.Set("hl", "en")
	if isNews {
		params.Set("tbm", "nws")
	}

	req, err := http.NewRequest(http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, commonerrors.NewSearchProviderFailedError(p.Name(), err)
	}

	resp, err := p.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, commonerrors.NewSearchProviderFailedError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, commonerrors.NewSearchProviderFailedError(p.Name(),
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload struct {
		OrganicResults []serpAPIItem `json:"organic_results"`
		NewsResults    []serpAPIItem `json:"news_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, commonerrors.NewSearchProviderFailedError(p.Name(), err)
	}

	items := payload.OrganicResults
	if isNews {
		items = payload.NewsResults
	}

	results := make([]Result, 0, len(items))
	for i, item := range items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:    item.Title,
			URL:      item.Link,
			Snippet:  item.Snippet,
			Provider: p.Name(),
			Rank:     i,
			IsNews:   isNews,
		})
	}
	return results, nil
}

type serpAPIItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// GoogleCSEProvider queries the Google Custom Search JSON API.
type GoogleCSEProvider struct {
	baseURL  string
	apiKey   string
	engineID string
	client   *commonhttp.Client
}

func NewGoogleCSEProvider(baseURL, apiKey, engineID string, client *commonhttp.Client) *GoogleCSEProvider {
	return &GoogleCSEProvider{baseURL: baseURL, apiKey: apiKey, engineID: engineID, client: client}
}

func (p *GoogleCSEProvider) Name() string { return "google_cse" }

func (p *GoogleCSEProvider) Query(ctx context.Context, term string, isNews bool) ([]Result, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.engineID)
	params.Set("q", term)
	params.Set("num", "10")
	if isNews {
		params.Set("sort", "date")
	}

	req, err := http.NewRequest(http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, commonerrors.NewSearchProviderFailedError(p.Name(), err)
	}

	resp, err := p.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, commonerrors.NewSearchProviderFailedError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, commonerrors.NewSearchProviderFailedError(p.Name(),
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, commonerrors.NewSearchProviderFailedError(p.Name(), err)
	}

	results := make([]Result, 0, len(payload.Items))
	for i, item := range payload.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:    item.Title,
			URL:      item.Link,
			Snippet:  item.Snippet,
			Provider: p.Name(),
			Rank:     i,
			IsNews:   isNews,
		})
	}
	return results, nil
}
