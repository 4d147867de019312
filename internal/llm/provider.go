// Package llm provides a uniform call interface over multiple model providers
// with an ordered-fallback resolver.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures. Callers must treat every kind as
// recoverable.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindQuota     ErrorKind = "quota"
	KindTimeout   ErrorKind = "timeout"
	KindTransport ErrorKind = "transport"
)

// ProviderError wraps a failed provider call.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a provider timeout.
func IsTimeout(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindTimeout
}

// Provider is the capability interface implemented by each model backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

func kindFromStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindQuota
	case status == 408 || status == 504:
		return KindTimeout
	default:
		return KindTransport
	}
}
