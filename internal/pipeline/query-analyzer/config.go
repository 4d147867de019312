// internal/pipeline/query-analyzer/config.go
package queryanalyzer

type Config struct {
	// MaxTokens bounds the analysis completion.
	MaxTokens int
	// HistoryWindow bounds how many recent turns are embedded in the prompt.
	HistoryWindow int
}
