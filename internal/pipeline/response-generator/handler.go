// internal/pipeline/response-generator/handler.go
package responsegenerator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	commonerrors "web-research-agent/internal/common/errors"
	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/common/validation"
	"web-research-agent/internal/models"
	contentanalyzer "web-research-agent/internal/pipeline/content-analyzer"
	queryanalyzer "web-research-agent/internal/pipeline/query-analyzer"
)

const StageName = "synthesizing"

const synthesisSchema = `{
	"type": "object",
	"required": ["summary"],
	"properties": {
		"summary": {"type": "string"},
		"detailed_response": {"type": "string"},
		"highlights": {"type": "array", "items": {"type": "string"}},
		"source_notes": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "integer"},
					"reliability_note": {"type": "string"}
				}
			}
		}
	}
}`

// Gateway is the LLM collaborator surface synthesis needs.
type Gateway interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type Generator struct {
	config  *Config
	gateway Gateway
	logger  logger.Logger
}

func NewGenerator(config *Config, gateway Gateway, log logger.Logger) *Generator {
	return &Generator{
		config:  config,
		gateway: gateway,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// topN maps required depth to how many ranked items feed synthesis.
func topN(depth string) int {
	switch depth {
	case queryanalyzer.DepthBrief:
		return 3
	case queryanalyzer.DepthDeep:
		return 8
	default:
		return 5
	}
}

// Generate synthesizes the final answer from the top ranked items. It never
// fails: synthesis errors produce a deterministic excerpt-based response with
// degraded set, and an empty ranked sequence produces a no-content response.
func (g *Generator) Generate(ctx context.Context, query string, plan *queryanalyzer.QueryPlan, ranked []contentanalyzer.Ranked, history []models.Turn) *Response {
	if len(ranked) == 0 {
		return &Response{
			Query:              query,
			Summary:            fmt.Sprintf("No relevant content could be retrieved for %q. Try rephrasing the query.", query),
			Highlights:         []string{},
			Sources:            []Source{},
			Degraded:           true,
			DegradationReasons: []string{commonerrors.ReasonNoContentAvailable},
		}
	}

	top := ranked
	if n := topN(plan.RequiredDepth); len(top) > n {
		top = top[:n]
	}

	raw, err := g.gateway.Complete(ctx, g.buildPrompt(query, plan, top, history), g.config.MaxTokens)
	if err != nil {
		g.logger.Warn("synthesis call failed, using excerpt fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return g.fallback(query, top)
	}

	var parsed struct {
		Summary          string   `json:"summary"`
		DetailedResponse string   `json:"detailed_response"`
		Highlights       []string `json:"highlights"`
		SourceNotes      []struct {
			ID              int    `json:"id"`
			ReliabilityNote string `json:"reliability_note"`
		} `json:"source_notes"`
	}
	if err := validation.DecodeStrict(raw, synthesisSchema, &parsed); err != nil {
		g.logger.Warn("synthesis output unparseable, using excerpt fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return g.fallback(query, top)
	}

	sources := sourcesFrom(top)
	for _, note := range parsed.SourceNotes {
		if note.ID >= 0 && note.ID < len(sources) {
			sources[note.ID].ReliabilityNote = note.ReliabilityNote
		}
	}

	highlights := parsed.Highlights
	if highlights == nil {
		highlights = []string{}
	}

	return &Response{
		Query:              query,
		Summary:            parsed.Summary,
		DetailedResponse:   parsed.DetailedResponse,
		Highlights:         highlights,
		Sources:            sources,
		DegradationReasons: []string{},
	}
}

// fallback builds the deterministic degraded response: the top one or two
// excerpts become the summary, sources carry over verbatim.
func (g *Generator) fallback(query string, top []contentanalyzer.Ranked) *Response {
	var excerpts []string
	for _, item := range top {
		excerpts = append(excerpts, excerpt(item.CleanedText, g.config.MaxExcerptChars))
		if len(excerpts) == 2 {
			break
		}
	}

	return &Response{
		Query:              query,
		Summary:            strings.Join(excerpts, "\n\n"),
		Highlights:         []string{},
		Sources:            sourcesFrom(top),
		Degraded:           true,
		DegradationReasons: []string{commonerrors.ReasonSynthesisFailed},
	}
}

func sourcesFrom(top []contentanalyzer.Ranked) []Source {
	sources := make([]Source, len(top))
	for i, item := range top {
		sources[i] = Source{URL: item.URL, Title: item.Title}
	}
	return sources
}

func (g *Generator) buildPrompt(query string, plan *queryanalyzer.QueryPlan, top []contentanalyzer.Ranked, history []models.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research Query: %q\n\n", query)
	fmt.Fprintf(&b, "Query Analysis:\n- Type: %s\n- Required Depth: %s\n", plan.QueryType, plan.RequiredDepth)
	if len(plan.Topics) > 0 {
		fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(plan.Topics, ", "))
	}

	if len(history) > 0 {
		b.WriteString("\nPrevious conversation context:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n",
				excerpt(turn.Query, 100), excerpt(turn.ResponseSummary, 100))
		}
	}

	fmt.Fprintf(&b, "\nBelow are relevant content excerpts from %d sources:\n", len(top))
	for i, item := range top {
		fmt.Fprintf(&b, "\nSOURCE %d: %s\nURL: %s\nEXCERPT: %s\n---\n",
			i, item.Title, item.URL, excerpt(item.CleanedText, g.config.MaxExcerptChars))
	}

	b.WriteString(`
Based on these sources, synthesize a comprehensive response to the query.
Respond with JSON only:
{
  "summary": "concise summary answering the query",
  "detailed_response": "in-depth markdown response",
  "highlights": ["key findings"],
  "source_notes": [{"id": 0, "reliability_note": "assessment of this source's reliability"}]
}

Rules:
1. Synthesize across sources rather than summarizing each individually.
2. When sources contradict each other, flag the contradiction explicitly instead of silently picking one.
3. Cite sources with [Source N] notation using the ids above.
4. Do not add information not found in the sources.
5. Provide one source_notes entry per source id.`)
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
