// internal/pipeline/response-generator/config.go
package responsegenerator

type Config struct {
	// MaxTokens bounds the synthesis completion.
	MaxTokens int
	// MaxExcerptChars bounds each source excerpt embedded in the prompt and
	// the excerpts concatenated into the deterministic fallback summary.
	MaxExcerptChars int
}
