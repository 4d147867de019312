// internal/pipeline/content-analyzer/models.go
package contentanalyzer

// Ranked is one content item with its fused relevance scores. Score is the
// effective sort key: the model score when refinement succeeded for this
// item, the lexical score otherwise. LLMScore stays nil when the model never
// scored the item, so mixed-provenance orderings remain inspectable.
type Ranked struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	CleanedText  string   `json:"cleaned_text"`
	Score        float64  `json:"relevance_score"`
	LexicalScore float64  `json:"lexical_score"`
	LLMScore     *float64 `json:"llm_score,omitempty"`
	// SearchRank is the provider-assigned position carried through from the
	// search stage, used as the first tie-breaker.
	SearchRank int `json:"search_rank"`
	// Position is the final zero-based position in the ranked sequence.
	Position int `json:"rank_position"`
}
