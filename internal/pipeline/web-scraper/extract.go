// internal/pipeline/web-scraper/extract.go
package webscraper

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	chromeSelectors  = "script, style, noscript, nav, footer, header, aside, form, iframe"
	contentSelectors = []string{"main", "article", "#content", ".content", ".post", ".article-body"}
	multiNewlineRe   = regexp.MustCompile(`\n{3,}`)
	spaceRe          = regexp.MustCompile(`[ \t]+`)
)

// extractArticle pulls structured article text out of an HTML page: page
// chrome is stripped, then headings, paragraphs, and list items are collected
// from the first recognizable content container.
func extractArticle(body io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(chromeSelectors).Remove()

	container := doc.Find("body")
	for _, selector := range contentSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			container = found.First()
			break
		}
	}

	var lines []string
	container.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		return "", fmt.Errorf("no article elements found")
	}
	return strings.Join(lines, "\n\n"), nil
}

// extractBodyText is the fallback: all visible text from the body with chrome
// removed, whitespace-normalized.
func extractBodyText(body io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(chromeSelectors).Remove()
	return doc.Find("body").Text(), nil
}

// cleanText normalizes extracted text: runs of blank lines collapse to one
// paragraph break, fragments of two characters or fewer are dropped, and
// repeated paragraphs (common in templated pages) keep only their first
// occurrence.
func cleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = multiNewlineRe.ReplaceAllString(normalized, "\n\n")

	seen := make(map[string]bool)
	var paragraphs []string
	for _, block := range strings.Split(normalized, "\n\n") {
		var kept []string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
			if len(line) <= 2 {
				continue
			}
			kept = append(kept, line)
		}
		if len(kept) == 0 {
			continue
		}
		paragraph := strings.Join(kept, " ")
		if seen[paragraph] {
			continue
		}
		seen[paragraph] = true
		paragraphs = append(paragraphs, paragraph)
	}
	return strings.Join(paragraphs, "\n\n")
}

// truncate cuts text at limit without splitting a word or a multi-byte rune
// when it can avoid it.
func truncate(text string, limit int) (string, bool) {
	if limit <= 0 || len(text) <= limit {
		return text, false
	}
	end := limit
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	if i := strings.LastIndexAny(cut, " \n"); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut), true
}
