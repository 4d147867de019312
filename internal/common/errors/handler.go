// internal/common/errors/handler.go
package errors

import (
	"sync"
	"time"
)

// Logger is the minimal logging surface the handler needs.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// DegradationLog accumulates recovered stage failures for a single research
// request. Every entry surfaces to the caller as a degradation reason on the
// final response; none of them propagate as a failure.
//
// Safe for concurrent use: scrape workers report per-URL failures in parallel.
type DegradationLog struct {
	mu      sync.Mutex
	logger  Logger
	reasons []string
}

func NewDegradationLog(logger Logger) *DegradationLog {
	return &DegradationLog{logger: logger}
}

// Record normalizes err to a StandardError, logs it, and appends the given
// human-readable reason. Duplicate reasons are kept once.
func (d *DegradationLog) Record(stage, reason string, err error) {
	stdErr := normalizeError(err)

	if d.logger != nil {
		d.logger.Warn("stage degraded", map[string]interface{}{
			"stage":     stage,
			"reason":    reason,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
			"retryable": stdErr.Retryable,
		})
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.reasons {
		if r == reason {
			return
		}
	}
	d.reasons = append(d.reasons, reason)
}

// Degraded reports whether any stage failure was recorded.
func (d *DegradationLog) Degraded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reasons) > 0
}

// Reasons returns the accumulated reasons in recording order.
func (d *DegradationLog) Reasons() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.reasons))
	copy(out, d.reasons)
	return out
}

// normalizeError ensures we always have a StandardError
func normalizeError(err error) *StandardError {
	if err == nil {
		return &StandardError{
			Code:      "INTERNAL_ERROR",
			Message:   "Unspecified degradation",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
