// internal/models/conversation.go
package models

import "time"

// Turn is one completed research exchange. The orchestrator owns the
// append-only sequence of turns; analysis and synthesis receive a bounded
// window of them for prompt context.
type Turn struct {
	Query           string    `json:"query"`
	ResponseSummary string    `json:"response_summary"`
	Timestamp       time.Time `json:"timestamp"`
}
