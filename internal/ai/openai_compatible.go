package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// OpenAICompatibleClient talks to any /chat/completions + /embeddings API
// (Groq by default).
type OpenAICompatibleClient struct {
	name       string
	httpClient *http.Client
	chat       ChatConfig
	embedding  EmbeddingConfig
}

func NewOpenAICompatibleClient(name string, chat ChatConfig, embedding EmbeddingConfig, timeout time.Duration) *OpenAICompatibleClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if name == "" {
		name = ProviderGroq
	}
	return &OpenAICompatibleClient{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		chat:       chat,
		embedding:  embedding,
	}
}

func (c *OpenAICompatibleClient) Name() string {
	return c.name
}

func (c *OpenAICompatibleClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]ChatMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})
	out, err := c.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *OpenAICompatibleClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if c.chat.APIKey == "" {
		return "", fmt.Errorf("llm api key is not configured")
	}
	reqBody := map[string]interface{}{
		"model":    c.chat.Model,
		"messages": messages,
		"stream":   false,
	}
	if c.chat.Temperature > 0 {
		reqBody["temperature"] = c.chat.Temperature
	}
	if c.chat.MaxTokens > 0 {
		reqBody["max_tokens"] = c.chat.MaxTokens
	}

	raw, err := c.post(ctx, c.chat.BaseURL, c.chat.APIKey, "/chat/completions", reqBody)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse llm json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty llm choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *OpenAICompatibleClient) post(ctx context.Context, baseURL, apiKey, path string, body interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("response status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
