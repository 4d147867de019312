// internal/pipeline/response-generator/models.go
package responsegenerator

// Source is one cited source in the final response, in ranking order.
type Source struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	ReliabilityNote string `json:"reliability_note,omitempty"`
}

// Response is the final structured answer. Degraded plus the reasons list is
// the only quality signal the caller gets; the shape is always complete.
type Response struct {
	Query              string   `json:"query"`
	Summary            string   `json:"summary"`
	DetailedResponse   string   `json:"detailed_response"`
	Highlights         []string `json:"highlights"`
	Sources            []Source `json:"sources"`
	Degraded           bool     `json:"degraded"`
	DegradationReasons []string `json:"degradation_reasons"`
}
