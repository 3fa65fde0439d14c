package app

import (
	"context"
	"strings"
	"unicode/utf8"

	"faqdesk/internal/model"
	"faqdesk/internal/pkg/logger"
	"faqdesk/internal/qa"
)

const minSemanticQueryChars = 5

type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type EmbeddingSource interface {
	ListWithEmbedding(ctx context.Context, limit int) ([]model.FAQ, error)
}

type SemanticMatch struct {
	Entry      model.FAQ
	Similarity float64
}

// SemanticMatcher compares a query embedding with stored entry embeddings.
type SemanticMatcher struct {
	embedder   QueryEmbedder
	source     EmbeddingSource
	minScore   float64
	maxEntries int
	log        *logger.Logger
}

func NewSemanticMatcher(embedder QueryEmbedder, source EmbeddingSource, minScore float64, maxEntries int, log *logger.Logger) *SemanticMatcher {
	if minScore <= 0 {
		minScore = 0.72
	}
	if maxEntries <= 0 {
		maxEntries = 2000
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SemanticMatcher{
		embedder:   embedder,
		source:     source,
		minScore:   minScore,
		maxEntries: maxEntries,
		log:        log,
	}
}

// Match returns the most similar entry at or above the minimum score. Any
// failure is reported as no match.
func (m *SemanticMatcher) Match(ctx context.Context, query string) (*SemanticMatch, bool) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSemanticQueryChars {
		return nil, false
	}

	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		m.log.Warn("semantic embed failed", "error", err)
		return nil, false
	}
	entries, err := m.source.ListWithEmbedding(ctx, m.maxEntries)
	if err != nil {
		m.log.Warn("semantic candidates failed", "error", err)
		return nil, false
	}

	var best *SemanticMatch
	for i := range entries {
		sim := qa.CosineSimilarity(vec, entries[i].EmbeddingVector())
		if sim < m.minScore {
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &SemanticMatch{Entry: entries[i], Similarity: sim}
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
