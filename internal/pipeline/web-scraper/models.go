// internal/pipeline/web-scraper/models.go
package webscraper

import (
	"time"

	searchtool "web-research-agent/internal/pipeline/search-tool"
)

// Extraction method markers. A failed fetch still yields a Content record so
// downstream stages see the full picture of what was attempted.
const (
	MethodPrimary  = "primary"
	MethodFallback = "fallback"
	MethodFailed   = "failed"
)

// Content is the scrape outcome for exactly one search result. RawText is
// the extraction before cleaning; analysis works on CleanedText.
type Content struct {
	Result      searchtool.Result `json:"result"`
	RawText     string            `json:"raw_text"`
	CleanedText string            `json:"cleaned_text"`
	Method      string            `json:"method"`
	FailReason  string            `json:"fail_reason,omitempty"`
	FetchedAt   time.Time         `json:"fetched_at"`
	Truncated   bool              `json:"truncated"`
}

// Usable reports whether the record carries text worth analyzing.
func (c *Content) Usable() bool {
	return c.Method != MethodFailed && c.CleanedText != ""
}
