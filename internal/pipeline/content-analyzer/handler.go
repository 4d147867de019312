// internal/pipeline/content-analyzer/handler.go
package contentanalyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/common/validation"
	queryanalyzer "web-research-agent/internal/pipeline/query-analyzer"
	webscraper "web-research-agent/internal/pipeline/web-scraper"
)

const StageName = "ranking"

const rankingsSchema = `{
	"type": "object",
	"required": ["rankings"],
	"properties": {
		"rankings": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "relevance_score"],
				"properties": {
					"id": {"type": "integer"},
					"relevance_score": {"type": "number"},
					"reason": {"type": "string"}
				}
			}
		}
	}
}`

// Gateway is the LLM collaborator surface the ranking stage needs.
type Gateway interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type Analyzer struct {
	config  *Config
	gateway Gateway
	logger  logger.Logger
}

func NewAnalyzer(config *Config, gateway Gateway, log logger.Logger) *Analyzer {
	return &Analyzer{
		config:  config,
		gateway: gateway,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Analyze fuses lexical and model relevance into a deterministically ordered
// sequence. The lexical pass always runs; model refinement is best-effort. A
// non-nil error only signals that refinement was skipped or incomplete and
// lexical scores carried the ordering; the returned sequence is always valid.
func (a *Analyzer) Analyze(ctx context.Context, plan *queryanalyzer.QueryPlan, items []webscraper.Content) ([]Ranked, error) {
	candidates := a.lexicalPass(plan, items)
	if len(candidates) == 0 {
		return nil, nil
	}

	refineErr := a.refine(ctx, plan, candidates)

	candidates = a.collapseNearDuplicates(candidates)
	sortRanked(candidates)
	for i := range candidates {
		candidates[i].Position = i
	}

	a.logger.Info("ranking completed", map[string]interface{}{
		"candidates": len(candidates),
		"refined":    refineErr == nil,
	})
	return candidates, refineErr
}

// lexicalPass scores every usable item and drops those below the threshold.
func (a *Analyzer) lexicalPass(plan *queryanalyzer.QueryPlan, items []webscraper.Content) []Ranked {
	terms := keyTerms(plan)

	var candidates []Ranked
	for _, item := range items {
		if !item.Usable() {
			continue
		}
		score := lexicalScore(terms, item.Result.Title, item.Result.URL, item.CleanedText,
			item.Result.IsNews, plan, a.config.Weights)
		if score < a.config.MinLexicalScore {
			continue
		}
		candidates = append(candidates, Ranked{
			URL:          item.Result.URL,
			Title:        item.Result.Title,
			CleanedText:  item.CleanedText,
			Score:        score,
			LexicalScore: score,
			SearchRank:   item.Result.Rank,
		})
	}
	return candidates
}

// refine sends the top lexical candidates to the model in one batched prompt
// and overlays returned scores. Candidates the model skipped keep their
// lexical score, so partial responses degrade item by item.
func (a *Analyzer) refine(ctx context.Context, plan *queryanalyzer.QueryPlan, candidates []Ranked) error {
	sortRanked(candidates)
	batch := candidates
	if len(batch) > a.config.MaxLLMItems {
		batch = batch[:a.config.MaxLLMItems]
	}

	raw, err := a.gateway.Complete(ctx, a.buildPrompt(plan, batch), a.config.MaxTokens)
	if err != nil {
		a.logger.Warn("relevance refinement failed, keeping lexical order", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("llm ranking: %w", err)
	}

	var parsed struct {
		Rankings []struct {
			ID             int     `json:"id"`
			RelevanceScore float64 `json:"relevance_score"`
			Reason         string  `json:"reason"`
		} `json:"rankings"`
	}
	if err := validation.DecodeStrict(raw, rankingsSchema, &parsed); err != nil {
		a.logger.Warn("relevance refinement unparseable, keeping lexical order", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("parse rankings: %w", err)
	}

	scored := 0
	for _, rank := range parsed.Rankings {
		if rank.ID < 0 || rank.ID >= len(batch) {
			continue
		}
		score := clamp01(rank.RelevanceScore)
		batch[rank.ID].LLMScore = &score
		batch[rank.ID].Score = score
		scored++
	}

	if scored < len(batch) {
		a.logger.Warn("model scored only part of the batch", map[string]interface{}{
			"scored": scored,
			"batch":  len(batch),
		})
		return fmt.Errorf("partial rankings: %d of %d items scored", scored, len(batch))
	}
	return nil
}

// collapseNearDuplicates drops items whose normalized title matches an
// already-kept item with near-equal content length, keeping the higher
// scored one. Conservative: anything not clearly a mirror is kept.
func (a *Analyzer) collapseNearDuplicates(candidates []Ranked) []Ranked {
	sortRanked(candidates)

	kept := make([]Ranked, 0, len(candidates))
	lengthsByTitle := make(map[string][]int)
	for _, c := range candidates {
		title := strings.ToLower(strings.TrimSpace(c.Title))
		if title == "" {
			kept = append(kept, c)
			continue
		}
		dup := false
		for _, keptLen := range lengthsByTitle[title] {
			if lengthRatio(len(c.CleanedText), keptLen) >= a.config.NearDupLenRatio {
				dup = true
				break
			}
		}
		if dup {
			a.logger.Debug("collapsing near-duplicate", map[string]interface{}{
				"url": c.URL,
			})
			continue
		}
		lengthsByTitle[title] = append(lengthsByTitle[title], len(c.CleanedText))
		kept = append(kept, c)
	}
	return kept
}

func lengthRatio(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

// sortRanked orders by effective score descending, then search rank
// ascending, then URL. The URL key makes the order total.
func sortRanked(candidates []Ranked) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].SearchRank != candidates[j].SearchRank {
			return candidates[i].SearchRank < candidates[j].SearchRank
		}
		return candidates[i].URL < candidates[j].URL
	})
}

func (a *Analyzer) buildPrompt(plan *queryanalyzer.QueryPlan, batch []Ranked) string {
	var b strings.Builder
	b.WriteString("You are ranking research sources for relevance to a query.\n\n")
	fmt.Fprintf(&b, "Query: %s\nQuery type: %s\n", plan.OriginalQuery, plan.QueryType)
	if len(plan.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(plan.Topics, ", "))
	}
	b.WriteString("\nSources:\n")
	for i, c := range batch {
		fmt.Fprintf(&b, "---\nid: %d\ntitle: %s\nurl: %s\nlexical_score: %.3f\nexcerpt: %s\n",
			i, c.Title, c.URL, c.LexicalScore, excerpt(c.CleanedText, a.config.ExcerptChars))
	}
	b.WriteString(`---

Score every source for relevance to the query. Respond with JSON only:
{"rankings": [{"id": 0, "relevance_score": 0.0, "reason": "terse reason"}, ...]}
relevance_score must be between 0 and 1. Include every id exactly once.`)
	return b.String()
}

func excerpt(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "..."
}
