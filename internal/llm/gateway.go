package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/common/metrics"
)

var ErrNoProviders = errors.New("NO_LLM_PROVIDERS")

// Gateway resolves completions across an ordered provider chain. A provider
// failure falls through to the next provider; only exhaustion of the whole
// chain surfaces as an error, and callers treat that as recoverable too.
type Gateway struct {
	providers  []Provider
	timeout    time.Duration
	maxRetries int
	logger     logger.Logger
}

func NewGateway(providers []Provider, timeout time.Duration, maxRetries int, log logger.Logger) *Gateway {
	return &Gateway{
		providers:  providers,
		timeout:    timeout,
		maxRetries: maxRetries,
		logger:     log.With(map[string]interface{}{"component": "llm-gateway"}),
	}
}

// Complete tries each provider in preference order with per-attempt timeouts
// and exponential backoff between retries on the same provider.
func (g *Gateway) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if len(g.providers) == 0 {
		return "", ErrNoProviders
	}

	var lastErr error
	for i, provider := range g.providers {
		result, err := g.completeWithRetry(ctx, provider, prompt, maxTokens)
		if err == nil {
			if i > 0 {
				metrics.ProviderFallbacks.WithLabelValues("llm", provider.Name()).Inc()
			}
			return result, nil
		}
		lastErr = err

		g.logger.Warn("provider failed, falling through", map[string]interface{}{
			"provider": provider.Name(),
			"error":    err.Error(),
		})

		if ctx.Err() != nil {
			return "", &ProviderError{Provider: provider.Name(), Kind: KindTimeout, Err: ctx.Err()}
		}
	}

	return "", fmt.Errorf("all llm providers failed: %w", lastErr)
}

func (g *Gateway) completeWithRetry(ctx context.Context, provider Provider, prompt string, maxTokens int) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", &ProviderError{Provider: provider.Name(), Kind: KindTimeout, Err: ctx.Err()}
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		result, err := provider.Complete(callCtx, prompt, maxTokens)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		// Auth failures will not heal on retry.
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Kind == KindAuth {
			break
		}

		if ctx.Err() != nil {
			break
		}
	}

	return "", lastErr
}
