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

const openaiSystemPrompt = "You are a research assistant. When asked for JSON, output only valid JSON."

// OpenAIProvider implements Provider over OpenAI-compatible chat completion APIs.
type OpenAIProvider struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(cfg config.OpenAIConfig) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		// Timeouts come from the per-call context, not the client.
		client: &http.Client{},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if p.apiKey == "" {
		return "", &ProviderError{Provider: p.Name(), Kind: KindAuth, Err: errors.New("missing API key")}
	}

	body, err := json.Marshal(map[string]any{
		"model":      p.model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": openaiSystemPrompt},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
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
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(apiResponse.Choices) == 0 {
		return "", &ProviderError{Provider: p.Name(), Kind: KindTransport, Err: errors.New("empty choices in response")}
	}

	return apiResponse.Choices[0].Message.Content, nil
}
