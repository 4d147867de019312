package llm

import (
	"context"
)

// mockResponse carries every field the pipeline's structured-output consumers
// know how to read. Consumers pick out what they need and ignore the rest, so
// one canned payload serves query analysis, ranking, and synthesis alike.
const mockResponse = `{
  "query_type": "exploratory",
  "topics": [],
  "search_terms": [],
  "time_sensitivity": "medium",
  "required_depth": "standard",
  "rankings": [],
  "summary": "This is a canned research summary produced without a configured language model. Configure an LLM provider for real synthesis.",
  "detailed_response": "",
  "highlights": [],
  "source_evaluation": {"reliability": "unknown", "contradictions": "", "information_gaps": "no model available"}
}`

// MockProvider is a deterministic last-resort provider for keyless setups.
// It never fails.
type MockProvider struct{}

var _ Provider = (*MockProvider)(nil)

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Complete(_ context.Context, _ string, _ int) (string, error) {
	return mockResponse, nil
}
