// Package errors provides standardized error handling for the research pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Pipeline stage errors. Each of these is recovered at its stage boundary and
// surfaces to the caller only as a degradation annotation, never as a failure.
const (
	ErrCodePlanningDegraded        ErrorCode = "PLANNING_DEGRADED"
	ErrCodeSearchProviderExhausted ErrorCode = "SEARCH_PROVIDER_EXHAUSTED"
	ErrCodeScrapeFailed            ErrorCode = "SCRAPE_FAILED"
	ErrCodeRankingFallback         ErrorCode = "RANKING_FALLBACK"
	ErrCodeSynthesisFailed         ErrorCode = "SYNTHESIS_FAILED"
	ErrCodeNoContentAvailable      ErrorCode = "NO_CONTENT_AVAILABLE"
)

// Collaborator errors.
const (
	ErrCodeLLMTimeout           ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMProviderFailed    ErrorCode = "LLM_PROVIDER_FAILED"
	ErrCodeSearchTimeout        ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeSearchProviderFailed ErrorCode = "SEARCH_PROVIDER_FAILED"
	ErrCodeFetchFailed          ErrorCode = "FETCH_FAILED"
	ErrCodeFetchTimeout         ErrorCode = "FETCH_TIMEOUT"
	ErrCodeRobotsDenied         ErrorCode = "ROBOTS_DENIED"

	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// Human-readable degradation reasons attached to a ResearchResponse. These are
// the only form in which stage failures reach the caller.
const (
	ReasonPlanningDegraded        = "planning-degraded"
	ReasonSearchProviderExhausted = "search-provider-exhausted"
	ReasonScrapeFailed            = "scrape-failed"
	ReasonRankingFallback         = "ranking-fallback"
	ReasonSynthesisFailed         = "synthesis-failed"
	ReasonNoContentAvailable      = "no-relevant-content"
	ReasonPolicyDenied            = "policy-denied"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewPlanningDegradedError records a query-analysis fallback to the deterministic plan.
func NewPlanningDegradedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePlanningDegraded,
		Message:   "Query analysis degraded to deterministic fallback plan",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchProviderExhaustedError records that every search provider failed,
// including the mock generator.
func NewSearchProviderExhaustedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchProviderExhausted,
		Message:   "All search providers failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewScrapeFailedError records a per-URL extraction failure.
func NewScrapeFailedError(url, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScrapeFailed,
		Message:   "Content extraction failed",
		Details:   reason,
		Retryable: true,
		Metadata:  map[string]interface{}{"url": url},
		Timestamp: time.Now().UTC(),
	}
}

// NewRankingFallbackError records a lexical-only ranking after LLM refinement failed.
func NewRankingFallbackError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRankingFallback,
		Message:   "Relevance ranking fell back to lexical scores",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisFailedError records a response-synthesis failure.
func NewSynthesisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisFailed,
		Message:   "Response synthesis failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoContentAvailableError records that no usable content survived the pipeline.
func NewNoContentAvailableError(query string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoContentAvailable,
		Message:   "No relevant content available for synthesis",
		Details:   fmt.Sprintf("query: %s", query),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM call timed out",
		Details:   fmt.Sprintf("provider: %s", provider),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMProviderFailedError creates a retryable LLM provider error.
func NewLLMProviderFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMProviderFailed,
		Message:   "LLM provider call failed",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchProviderFailedError creates a retryable search provider error.
func NewSearchProviderFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchProviderFailed,
		Message:   "Search provider call failed",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFetchFailedError creates a retryable page fetch error.
func NewFetchFailedError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchFailed,
		Message:   "Page fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"url": url},
		Timestamp: time.Now().UTC(),
	}
}

// NewRobotsDeniedError creates a non-retryable robots policy error.
func NewRobotsDeniedError(url string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRobotsDenied,
		Message:   "Fetch disallowed by robots policy",
		Retryable: false,
		Metadata:  map[string]interface{}{"url": url},
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigInvalidError creates a non-retryable startup configuration error.
// This is the only class of error that is fatal to the process.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
