package bootstrap

import (
	"context"

	"faqdesk/internal/ai"
	"faqdesk/internal/app"
	"faqdesk/internal/config"
	"faqdesk/internal/pkg/logger"
)

// NewGenerators returns the configured generative providers, Gemini first.
func NewGenerators(ctx context.Context, cfg *config.Config, log *logger.Logger) []app.TextGenerator {
	if log == nil {
		log = logger.Nop()
	}
	var out []app.TextGenerator
	if cfg.Gemini.APIKey != "" {
		g, err := ai.NewGeminiClient(ctx, geminiConfig(cfg))
		if err != nil {
			log.Warn("gemini disabled", "error", err)
		} else {
			out = append(out, g)
		}
	}
	if cfg.LLM.APIKey != "" {
		out = append(out, openAICompatible(cfg))
	}
	if len(out) == 0 {
		log.Warn("no ai provider configured")
	}
	return out
}

// NewEmbedder prefers Gemini embeddings and falls back to the
// OpenAI-compatible endpoint. Nil means no embedder is configured.
func NewEmbedder(ctx context.Context, cfg *config.Config, log *logger.Logger) ai.Embedder {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Gemini.APIKey != "" && cfg.Gemini.EmbeddingModel != "" {
		g, err := ai.NewGeminiClient(ctx, geminiConfig(cfg))
		if err == nil {
			return g
		}
		log.Warn("gemini embeddings disabled", "error", err)
	}
	if cfg.LLM.APIKey != "" && cfg.LLM.EmbeddingModel != "" {
		return openAICompatible(cfg)
	}
	return nil
}

func geminiConfig(cfg *config.Config) ai.GeminiConfig {
	return ai.GeminiConfig{
		APIKey:          cfg.Gemini.APIKey,
		Model:           cfg.Gemini.Model,
		EmbeddingModel:  cfg.Gemini.EmbeddingModel,
		Temperature:     0.2,
		MaxOutputTokens: 700,
	}
}

func openAICompatible(cfg *config.Config) *ai.OpenAICompatibleClient {
	return ai.NewOpenAICompatibleClient(ai.ProviderGroq,
		ai.ChatConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: 0.2,
			MaxTokens:   700,
		},
		ai.EmbeddingConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.EmbeddingModel,
		},
		cfg.AI.Timeout(),
	)
}
