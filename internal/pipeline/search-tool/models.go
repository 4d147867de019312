// internal/pipeline/search-tool/models.go
package searchtool

// Result is one search hit as returned by a provider. Rank is the
// provider-assigned position within that provider's response for a single
// term, starting at zero.
type Result struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Provider string `json:"provider"`
	Rank     int    `json:"rank"`
	IsNews   bool   `json:"is_news"`
}
