package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"web-research-agent/internal/common/config"
)

const anthropicAPIVersion = "2023-06-01"

// AnthropicProvider implements Provider over the Anthropic messages API.
type AnthropicProvider struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

var _ Provider = (*AnthropicProvider)(nil)

func NewAnthropicProvider(cfg config.AnthropicConfig) *AnthropicProvider {
	return &AnthropicProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  &http.Client{},
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if p.apiKey == "" {
		return "", &ProviderError{Provider: p.Name(), Kind: KindAuth, Err: errors.New("missing API key")}
	}

	body, err := json.Marshal(map[string]any{
		"model":      p.model,
		"max_tokens": maxTokens,
		"system":     openaiSystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: err}
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return "", &ProviderError{Provider: p.Name(), Kind: KindTimeout, Err: err}
		}
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &ProviderError{
			Provider: p.Name(),
			Kind:     kindFromStatus(resp.StatusCode),
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))),
		}
	}

	var apiResponse struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(apiResponse.Content) == 0 {
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: errors.New("empty content in response")}
	}

	return apiResponse.Content[0].Text, nil
}
