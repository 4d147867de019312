// internal/pipeline/content-analyzer/config.go
package contentanalyzer

// Weights tunes how the lexical component scores are fused. The values do
// not need to sum to one; the fused score is normalized by their total.
type Weights struct {
	TermFrequency float64
	TitleMatch    float64
	URLMatch      float64
	Recency       float64
	// PhraseMatch rewards exact multi-word search terms appearing verbatim in
	// the content or, more strongly, the title.
	PhraseMatch float64
	// ContentLength rewards substantive articles over short fragments.
	ContentLength float64
}

type Config struct {
	Weights Weights
	// MinLexicalScore excludes items below it from ranking entirely.
	MinLexicalScore float64
	// MaxLLMItems bounds how many top lexical candidates are sent for model
	// refinement in one batched prompt.
	MaxLLMItems int
	// ExcerptChars bounds the excerpt of each candidate embedded in the
	// refinement prompt.
	ExcerptChars int
	// NearDupLenRatio is the min/max content-length ratio above which two
	// same-titled items are collapsed into the higher-scored one.
	NearDupLenRatio float64
	// MaxTokens bounds the refinement completion.
	MaxTokens int
}
