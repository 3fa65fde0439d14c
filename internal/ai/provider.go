package ai

import "context"

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Generator produces a single completion for a system instruction and a user prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Embedder turns text into dense vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
