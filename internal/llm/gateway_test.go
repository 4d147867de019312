// internal/llm/gateway_test.go
package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web-research-agent/internal/common/logger"
)

type scriptedProvider struct {
	name     string
	err      error
	failures int
	calls    int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Complete(_ context.Context, _ string, _ int) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	if p.calls <= p.failures {
		return "", &ProviderError{Provider: p.name, Kind: KindTransport, Err: errors.New("connection reset")}
	}
	return "response from " + p.name, nil
}

func TestGatewayCompleteFirstProviderWins(t *testing.T) {
	first := &scriptedProvider{name: "first"}
	second := &scriptedProvider{name: "second"}
	g := NewGateway([]Provider{first, second}, time.Second, 0, logger.NewNoOpLogger())

	result, err := g.Complete(context.Background(), "prompt", 100)

	require.NoError(t, err)
	assert.Equal(t, "response from first", result)
	assert.Zero(t, second.calls)
}

func TestGatewayFallsThroughOnProviderFailure(t *testing.T) {
	first := &scriptedProvider{
		name: "first",
		err:  &ProviderError{Provider: "first", Kind: KindQuota, Err: errors.New("quota exhausted")},
	}
	second := &scriptedProvider{name: "second"}
	g := NewGateway([]Provider{first, second}, time.Second, 0, logger.NewNoOpLogger())

	result, err := g.Complete(context.Background(), "prompt", 100)

	require.NoError(t, err)
	assert.Equal(t, "response from second", result)
}

func TestGatewayRetriesTransientFailures(t *testing.T) {
	provider := &scriptedProvider{name: "flaky", failures: 2}
	g := NewGateway([]Provider{provider}, time.Second, 2, logger.NewNoOpLogger())

	result, err := g.Complete(context.Background(), "prompt", 100)

	require.NoError(t, err)
	assert.Equal(t, "response from flaky", result)
	assert.Equal(t, 3, provider.calls)
}

func TestGatewayDoesNotRetryAuthFailures(t *testing.T) {
	provider := &scriptedProvider{
		name: "locked-out",
		err:  &ProviderError{Provider: "locked-out", Kind: KindAuth, Err: errors.New("invalid api key")},
	}
	g := NewGateway([]Provider{provider}, time.Second, 3, logger.NewNoOpLogger())

	_, err := g.Complete(context.Background(), "prompt", 100)

	assert.Error(t, err)
	assert.Equal(t, 1, provider.calls, "auth failures must not burn retries")
}

func TestGatewayExhaustionReturnsLastError(t *testing.T) {
	boom := &ProviderError{Provider: "only", Kind: KindTransport, Err: errors.New("down")}
	g := NewGateway([]Provider{&scriptedProvider{name: "only", err: boom}}, time.Second, 0, logger.NewNoOpLogger())

	_, err := g.Complete(context.Background(), "prompt", 100)

	require.Error(t, err)
	var pe *ProviderError
	assert.True(t, errors.As(err, &pe))
}

func TestGatewayNoProviders(t *testing.T) {
	g := NewGateway(nil, time.Second, 0, logger.NewNoOpLogger())

	_, err := g.Complete(context.Background(), "prompt", 100)

	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestMockProviderAlwaysSucceeds(t *testing.T) {
	p := NewMockProvider()

	first, err := p.Complete(context.Background(), "anything", 10)
	require.NoError(t, err)
	second, err := p.Complete(context.Background(), "something else", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second, "mock output is deterministic")
	assert.Contains(t, first, "summary")
}
