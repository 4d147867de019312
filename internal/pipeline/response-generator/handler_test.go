// internal/pipeline/response-generator/handler_test.go
package responsegenerator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/models"
	contentanalyzer "web-research-agent/internal/pipeline/content-analyzer"
	queryanalyzer "web-research-agent/internal/pipeline/query-analyzer"
)

type stubGateway struct {
	response   string
	err        error
	lastPrompt string
}

func (g *stubGateway) Complete(_ context.Context, prompt string, _ int) (string, error) {
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func testGeneratorConfig() *Config {
	return &Config{MaxTokens: 2048, MaxExcerptChars: 1500}
}

func rankedFixture(n int) []contentanalyzer.Ranked {
	items := []contentanalyzer.Ranked{
		{URL: "https://example.org/ev-lifecycle", Title: "EV Lifecycle Emissions", CleanedText: "Battery production dominates lifecycle emissions.", Score: 0.9},
		{URL: "https://example.com/ev-grid", Title: "EVs and the Grid", CleanedText: "Charging shifts emissions to power generation.", Score: 0.8},
		{URL: "https://example.net/ev-materials", Title: "EV Material Sourcing", CleanedText: "Lithium and cobalt extraction carry their own impacts.", Score: 0.7},
		{URL: "https://example.io/ev-policy", Title: "EV Policy", CleanedText: "Policy incentives change adoption curves.", Score: 0.6},
		{URL: "https://example.dev/ev-noise", Title: "EV Noise", CleanedText: "Electric drivetrains reduce urban noise.", Score: 0.5},
		{URL: "https://example.app/ev-chargers", Title: "Charger Buildout", CleanedText: "Charger availability shapes usage patterns.", Score: 0.4},
	}
	for i := range items {
		items[i].LexicalScore = items[i].Score
		items[i].SearchRank = i
		items[i].Position = i
	}
	return items[:n]
}

func standardPlan() *queryanalyzer.QueryPlan {
	return &queryanalyzer.QueryPlan{
		OriginalQuery: "environmental impacts of electric vehicles",
		QueryType:     queryanalyzer.QueryTypeFactual,
		RequiredDepth: queryanalyzer.DepthStandard,
	}
}

func TestGenerateBuildsStructuredResponse(t *testing.T) {
	gateway := &stubGateway{
		response: `{
			"summary": "EVs shift environmental impact from tailpipes to production and power generation.",
			"detailed_response": "## Impacts\nBattery production dominates.",
			"highlights": ["battery production", "grid mix"],
			"source_notes": [
				{"id": 0, "reliability_note": "peer-reviewed analysis"},
				{"id": 1, "reliability_note": "industry report"}
			]
		}`,
	}
	generator := NewGenerator(testGeneratorConfig(), gateway, logger.NewNoOpLogger())

	resp := generator.Generate(context.Background(), "environmental impacts of electric vehicles",
		standardPlan(), rankedFixture(2), nil)

	require.NotNil(t, resp)
	assert.False(t, resp.Degraded)
	assert.Empty(t, resp.DegradationReasons)
	assert.Contains(t, resp.Summary, "tailpipes")
	assert.Equal(t, []string{"battery production", "grid mix"}, resp.Highlights)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "https://example.org/ev-lifecycle", resp.Sources[0].URL)
	assert.Equal(t, "peer-reviewed analysis", resp.Sources[0].ReliabilityNote)
	assert.Equal(t, "industry report", resp.Sources[1].ReliabilityNote)
}

func TestGenerateEmptyRankedDegradesWithNoSources(t *testing.T) {
	gateway := &stubGateway{}
	generator := NewGenerator(testGeneratorConfig(), gateway, logger.NewNoOpLogger())

	resp := generator.Generate(context.Background(), "obscure query", standardPlan(), nil, nil)

	require.NotNil(t, resp)
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.DegradationReasons, "no-relevant-content")
	assert.Empty(t, resp.Sources)
	assert.NotEmpty(t, resp.Summary)
	assert.Empty(t, gateway.lastPrompt, "no synthesis call without content")
}

func TestGenerateSynthesisFailureFallsBackToExcerpts(t *testing.T) {
	gateway := &stubGateway{err: errors.New("all providers failed")}
	generator := NewGenerator(testGeneratorConfig(), gateway, logger.NewNoOpLogger())

	ranked := rankedFixture(3)
	resp := generator.Generate(context.Background(), "environmental impacts of electric vehicles",
		standardPlan(), ranked, nil)

	require.NotNil(t, resp)
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.DegradationReasons, "synthesis-failed")
	assert.Contains(t, resp.Summary, "Battery production dominates")
	assert.Contains(t, resp.Summary, "Charging shifts emissions")
	assert.NotContains(t, resp.Summary, "Lithium", "fallback summary uses at most two excerpts")
	assert.Empty(t, resp.DetailedResponse)
	assert.Empty(t, resp.Highlights)
	require.Len(t, resp.Sources, 3)
	assert.Equal(t, "EV Lifecycle Emissions", resp.Sources[0].Title)
}

func TestGenerateUnparseableOutputFallsBack(t *testing.T) {
	gateway := &stubGateway{response: "I could not produce JSON, sorry."}
	generator := NewGenerator(testGeneratorConfig(), gateway, logger.NewNoOpLogger())

	resp := generator.Generate(context.Background(), "q", standardPlan(), rankedFixture(1), nil)

	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.DegradationReasons, "synthesis-failed")
}

func TestGenerateDepthControlsSourceCount(t *testing.T) {
	cases := []struct {
		depth string
		want  int
	}{
		{queryanalyzer.DepthBrief, 3},
		{queryanalyzer.DepthStandard, 5},
		{queryanalyzer.DepthDeep, 6}, // only six fixtures available
	}
	for _, tc := range cases {
		t.Run(tc.depth, func(t *testing.T) {
			gateway := &stubGateway{response: `{"summary": "s"}`}
			generator := NewGenerator(testGeneratorConfig(), gateway, logger.NewNoOpLogger())

			plan := standardPlan()
			plan.RequiredDepth = tc.depth
			resp := generator.Generate(context.Background(), "q", plan, rankedFixture(6), nil)

			assert.Len(t, resp.Sources, tc.want)
		})
	}
}

func TestGeneratePromptEmbedsHistoryAndSources(t *testing.T) {
	gateway := &stubGateway{response: `{"summary": "s"}`}
	generator := NewGenerator(testGeneratorConfig(), gateway, logger.NewNoOpLogger())

	history := []models.Turn{
		{Query: "what is an electric vehicle", ResponseSummary: "An EV is a battery-powered car."},
	}
	generator.Generate(context.Background(), "how green are they", standardPlan(), rankedFixture(2), history)

	assert.Contains(t, gateway.lastPrompt, "what is an electric vehicle")
	assert.Contains(t, gateway.lastPrompt, "SOURCE 0: EV Lifecycle Emissions")
	assert.Contains(t, gateway.lastPrompt, "SOURCE 1: EVs and the Grid")
	assert.True(t, strings.Contains(gateway.lastPrompt, "flag the contradiction"))
}

func TestExcerptKeepsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 300)

	cut := excerpt(text, 101)

	assert.True(t, utf8.ValidString(cut), "excerpt must not split a multi-byte rune")
	assert.True(t, strings.HasSuffix(cut, "..."))
}
