// internal/pipeline/query-analyzer/models.go
package queryanalyzer

// Query type classification driving search and synthesis behavior.
const (
	QueryTypeFactual     = "factual"
	QueryTypeExploratory = "exploratory"
	QueryTypeComparative = "comparative"
	QueryTypeNews        = "news"
)

// Time sensitivity levels.
const (
	TimeSensitivityLow    = "low"
	TimeSensitivityMedium = "medium"
	TimeSensitivityHigh   = "high"
)

// Required response depth levels.
const (
	DepthBrief    = "brief"
	DepthStandard = "standard"
	DepthDeep     = "deep"
)

// QueryPlan is the structured search strategy for one query. Immutable once
// produced; consumed by the search tool, content analyzer, and response
// generator.
type QueryPlan struct {
	OriginalQuery   string   `json:"original_query"`
	QueryType       string   `json:"query_type"`
	Topics          []string `json:"topics"`
	SearchTerms     []string `json:"search_terms"`
	TimeSensitivity string   `json:"time_sensitivity"`
	RequiredDepth   string   `json:"required_depth"`
}

// FallbackPlan is the deterministic floor the rest of the pipeline can always
// rely on when analysis fails.
func FallbackPlan(query string) *QueryPlan {
	return &QueryPlan{
		OriginalQuery:   query,
		QueryType:       QueryTypeExploratory,
		Topics:          []string{},
		SearchTerms:     []string{query},
		TimeSensitivity: TimeSensitivityMedium,
		RequiredDepth:   DepthStandard,
	}
}
