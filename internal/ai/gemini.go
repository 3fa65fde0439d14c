package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey          string
	Model           string
	EmbeddingModel  string
	Temperature     float32
	MaxOutputTokens int32
}

type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiClient{client: client, cfg: cfg}, nil
}

func (g *GeminiClient) Name() string {
	return ProviderGemini
}

func (g *GeminiClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if strings.TrimSpace(system) != "" {
		config.SystemInstruction = genai.NewContentFromText(system, "")
	}
	if g.cfg.Temperature > 0 {
		config.Temperature = genai.Ptr(g.cfg.Temperature)
	}
	if g.cfg.MaxOutputTokens > 0 {
		config.MaxOutputTokens = g.cfg.MaxOutputTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty gemini candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("empty gemini text")
	}
	return text, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}
	out, err := g.embed(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return out[0], nil
}

func (g *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		if s := strings.TrimSpace(t); s != "" {
			contents = append(contents, genai.NewContentFromText(s, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("no non-empty texts for embedding")
	}
	return g.embed(ctx, contents)
}

func (g *GeminiClient) embed(ctx context.Context, contents []*genai.Content) ([][]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.cfg.EmbeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e != nil {
			out[i] = e.Values
		}
	}
	return out, nil
}
