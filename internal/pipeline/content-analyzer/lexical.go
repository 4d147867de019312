// internal/pipeline/content-analyzer/lexical.go
package contentanalyzer

import (
	"strings"

	queryanalyzer "web-research-agent/internal/pipeline/query-analyzer"
)

// termCountCap applies diminishing returns: occurrences of one key term
// beyond this many add nothing.
const termCountCap = 5

// A verbatim multi-word phrase in the title is a stronger relevance signal
// than the same phrase buried in the body.
const (
	contentPhraseShare = 0.375
	titlePhraseShare   = 0.625
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "about": true, "of": true,
}

// keyTerms extracts the deduplicated lowercase keywords from the plan's
// topics and search terms, dropping stop words and fragments.
func keyTerms(plan *queryanalyzer.QueryPlan) []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(phrase string) {
		for _, word := range strings.Fields(strings.ToLower(phrase)) {
			if len(word) <= 2 || stopWords[word] || seen[word] {
				continue
			}
			seen[word] = true
			terms = append(terms, word)
		}
	}
	for _, term := range plan.SearchTerms {
		add(term)
	}
	for _, topic := range plan.Topics {
		add(topic)
	}
	return terms
}

// lexicalScore fuses term frequency, title and URL keyword matches, exact
// phrase hits, content length, and a news-recency signal into a single score
// in [0,1].
func lexicalScore(terms []string, title, url, text string, isNews bool, plan *queryanalyzer.QueryPlan, w Weights) float64 {
	if len(terms) == 0 {
		return 0
	}
	titleLower := strings.ToLower(title)
	urlLower := strings.ToLower(url)
	textLower := strings.ToLower(text)

	var tf, titleHits, urlHits float64
	for _, term := range terms {
		if count := strings.Count(textLower, term); count > 0 {
			tf += float64(min(count, termCountCap))
		}
		if strings.Contains(titleLower, term) {
			titleHits++
		}
		if strings.Contains(urlLower, term) {
			urlHits++
		}
	}
	n := float64(len(terms))
	tfScore := tf / (termCountCap * n)
	titleScore := titleHits / n
	urlScore := urlHits / n

	var recencyScore float64
	if plan.TimeSensitivity == queryanalyzer.TimeSensitivityHigh && isNews {
		recencyScore = 1
	}

	phraseScore := phraseMatchScore(plan.SearchTerms, titleLower, textLower)
	lengthScore := contentLengthScore(text)

	total := w.TermFrequency + w.TitleMatch + w.URLMatch + w.Recency + w.PhraseMatch + w.ContentLength
	if total <= 0 {
		return 0
	}
	score := (w.TermFrequency*tfScore +
		w.TitleMatch*titleScore +
		w.URLMatch*urlScore +
		w.Recency*recencyScore +
		w.PhraseMatch*phraseScore +
		w.ContentLength*lengthScore) / total
	return clamp01(score)
}

// phraseMatchScore checks each multi-word search term verbatim against the
// lowercased title and content. Single-word terms are already covered by the
// term-frequency component.
func phraseMatchScore(searchTerms []string, titleLower, textLower string) float64 {
	var hits, multiWord float64
	for _, term := range searchTerms {
		phrase := strings.ToLower(strings.TrimSpace(term))
		if !strings.Contains(phrase, " ") {
			continue
		}
		multiWord++
		if strings.Contains(textLower, phrase) {
			hits += contentPhraseShare
		}
		if strings.Contains(titleLower, phrase) {
			hits += titlePhraseShare
		}
	}
	if multiWord == 0 {
		return 0
	}
	return clamp01(hits / multiWord)
}

// contentLengthScore rewards substantive articles in word-count tiers, so a
// short keyword-stuffed fragment cannot tie a full write-up that matches the
// same terms.
func contentLengthScore(text string) float64 {
	words := len(strings.Fields(text))
	switch {
	case words > 1000:
		return 1
	case words > 500:
		return 0.6
	case words > 200:
		return 0.2
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
