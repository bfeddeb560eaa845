package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

type httpProvider struct {
	name       string
	settings   domain.LLMSettings
	httpClient *http.Client
	adapter    providerAdapter
}

// providerAdapter captures the per-API differences: request body shape,
// response parsing, and authentication headers.
type providerAdapter struct {
	buildRequest  func(domain.LLMSettings, string, string) ([]byte, error)
	parseResponse func([]byte) (string, error)
	setHeaders    func(*http.Request, domain.LLMSettings) error
}

func newHTTPProvider(name string, settings domain.LLMSettings, client *http.Client, adapter providerAdapter) ports.Provider {
	return &httpProvider{
		name:       name,
		settings:   settings,
		httpClient: client,
		adapter:    adapter,
	}
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Generate(ctx context.Context, req ports.ProviderRequest) (ports.ProviderResponse, error) {
	requestBody, err := p.adapter.buildRequest(p.settings, req.System, req.Prompt)
	if err != nil {
		return ports.ProviderResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.settings.Endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return ports.ProviderResponse{}, err
	}

	httpReq.Header.Set("content-type", "application/json")
	if err := p.adapter.setHeaders(httpReq, p.settings); err != nil {
		return ports.ProviderResponse{}, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return ports.ProviderResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ports.ProviderResponse{}, fmt.Errorf("%s: %s", p.name, resp.Status)
	}

	var responseBody bytes.Buffer
	if _, err := responseBody.ReadFrom(resp.Body); err != nil {
		return ports.ProviderResponse{}, err
	}

	content, err := p.adapter.parseResponse(responseBody.Bytes())
	if err != nil {
		return ports.ProviderResponse{}, err
	}

	return ports.ProviderResponse{Content: content}, nil
}

func anthropicAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildAnthropicRequest,
		parseResponse: parseAnthropicResponse,
		setHeaders:    setAnthropicHeaders,
	}
}

func openaiAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    setOpenAIHeaders,
	}
}

func ollamaAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    func(*http.Request, domain.LLMSettings) error { return nil },
	}
}

func buildAnthropicRequest(settings domain.LLMSettings, system, prompt string) ([]byte, error) {
	request := map[string]interface{}{
		"model":      valueOrDefault(settings.ModelID, "claude-3-5-haiku-20241022"),
		"max_tokens": valueOrDefaultInt(settings.MaxTokens, 512),
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if system != "" {
		request["system"] = system
	}
	return json.Marshal(request)
}

func parseAnthropicResponse(body []byte) (string, error) {
	var payload struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	if len(payload.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty content")
	}
	return payload.Content[0].Text, nil
}

func setAnthropicHeaders(req *http.Request, settings domain.LLMSettings) error {
	key := resolveAuth(settings.AuthEnvVar, "ANTHROPIC_API_KEY")
	if key == "" {
		return fmt.Errorf("anthropic: missing API key")
	}
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", "2023-06-01")
	return nil
}

func buildChatCompletionRequest(settings domain.LLMSettings, system, prompt string) ([]byte, error) {
	messages := make([]map[string]string, 0, 2)
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	request := map[string]interface{}{
		"model":       settings.ModelID,
		"messages":    messages,
		"max_tokens":  valueOrDefaultInt(settings.MaxTokens, 512),
		"temperature": 0.3, // deterministic-ish parsing
		"stream":      false,
	}
	return json.Marshal(request)
}

func parseChatCompletionResponse(body []byte) (string, error) {
	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return payload.Choices[0].Message.Content, nil
}

func setOpenAIHeaders(req *http.Request, settings domain.LLMSettings) error {
	key := resolveAuth(settings.AuthEnvVar, "OPENAI_API_KEY")
	if key == "" {
		return fmt.Errorf("openai: missing API key")
	}
	req.Header.Set("Authorization", "Bearer "+key)
	return nil
}
