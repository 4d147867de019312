// internal/pipeline/query-analyzer/handler.go
package queryanalyzer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/common/validation"
	"web-research-agent/internal/models"
)

const StageName = "planning"

// planSchema validates the model's analysis output before it is trusted.
const planSchema = `{
	"type": "object",
	"required": ["query_type", "search_terms"],
	"properties": {
		"query_type": {"type": "string", "enum": ["factual", "exploratory", "comparative", "news"]},
		"topics": {"type": "array", "items": {"type": "string"}},
		"search_terms": {"type": "array", "items": {"type": "string"}, "minItems": 1},
		"time_sensitivity": {"type": "string", "enum": ["low", "medium", "high"]},
		"required_depth": {"type": "string", "enum": ["brief", "standard", "deep"]}
	}
}`

// Gateway is the LLM collaborator surface the analyzer needs.
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

// Analyze turns a raw query plus recent history into a QueryPlan. The returned
// plan is always usable; a non-nil error only signals that the deterministic
// fallback plan was used.
func (a *Analyzer) Analyze(ctx context.Context, query string, history []models.Turn) (*QueryPlan, error) {
	prompt := a.buildPrompt(query, history)

	raw, err := a.gateway.Complete(ctx, prompt, a.config.MaxTokens)
	if err != nil {
		a.logger.Warn("analysis call failed, using fallback plan", map[string]interface{}{
			"error": err.Error(),
		})
		return FallbackPlan(query), fmt.Errorf("llm analysis: %w", err)
	}

	var parsed struct {
		QueryType       string   `json:"query_type"`
		Topics          []string `json:"topics"`
		SearchTerms     []string `json:"search_terms"`
		TimeSensitivity string   `json:"time_sensitivity"`
		RequiredDepth   string   `json:"required_depth"`
	}
	if err := validation.DecodeStrict(raw, planSchema, &parsed); err != nil {
		a.logger.Warn("analysis output unparseable, using fallback plan", map[string]interface{}{
			"error": err.Error(),
		})
		return FallbackPlan(query), fmt.Errorf("parse analysis: %w", err)
	}

	plan := &QueryPlan{
		OriginalQuery:   query,
		QueryType:       parsed.QueryType,
		Topics:          parsed.Topics,
		SearchTerms:     parsed.SearchTerms,
		TimeSensitivity: parsed.TimeSensitivity,
		RequiredDepth:   parsed.RequiredDepth,
	}
	if plan.Topics == nil {
		plan.Topics = []string{}
	}
	if plan.TimeSensitivity == "" {
		plan.TimeSensitivity = TimeSensitivityMedium
	}
	if plan.RequiredDepth == "" {
		plan.RequiredDepth = DepthStandard
	}

	a.logger.Info("query analyzed", map[string]interface{}{
		"queryType":   plan.QueryType,
		"searchTerms": len(plan.SearchTerms),
		"topics":      len(plan.Topics),
	})

	return plan, nil
}

func (a *Analyzer) buildPrompt(query string, history []models.Turn) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Analyze the following research query and provide a structured analysis:

QUERY: %q

Return your analysis as a JSON object with the following structure:
{
    "query_type": "factual | exploratory | comparative | news",
    "topics": ["list", "of", "main", "topics"],
    "search_terms": ["optimized", "search", "terms"],
    "time_sensitivity": "low | medium | high",
    "required_depth": "brief | standard | deep"
}

For search_terms, provide 1-3 distinct search queries that would yield the most relevant information.
`, query)

	window := history
	if a.config.HistoryWindow > 0 && len(window) > a.config.HistoryWindow {
		window = window[len(window)-a.config.HistoryWindow:]
	}
	if len(window) > 0 {
		b.WriteString("\nPrevious conversation context:\n")
		for _, turn := range window {
			fmt.Fprintf(&b, "User: %s\n", truncate(turn.Query, 200))
			fmt.Fprintf(&b, "Assistant: %s\n", truncate(turn.ResponseSummary, 200))
		}
		b.WriteString("\nConsider this context when analyzing the query.\n")
	}

	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
