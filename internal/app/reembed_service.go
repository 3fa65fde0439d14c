package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"faqdesk/internal/ai"
	"faqdesk/internal/model"
	"faqdesk/internal/pkg/logger"
)

const (
	embeddingBatchSize = 10
	maxBackfillEntries = 10000
)

type EmbeddingStore interface {
	GetByID(ctx context.Context, id string) (*model.FAQ, error)
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error
	ListWithoutEmbedding(ctx context.Context, limit int) ([]model.FAQ, error)
}

type BackfillReport struct {
	Total    int `json:"total"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// ReembedService maintains entry embeddings used by the semantic stage.
type ReembedService struct {
	store      EmbeddingStore
	embedder   ai.Embedder
	secretHash []byte
	log        *logger.Logger
}

func NewReembedService(store EmbeddingStore, embedder ai.Embedder, secretHash string, log *logger.Logger) *ReembedService {
	if log == nil {
		log = logger.Nop()
	}
	return &ReembedService{
		store:      store,
		embedder:   embedder,
		secretHash: []byte(strings.TrimSpace(secretHash)),
		log:        log,
	}
}

// Authorize checks the admin secret against the configured bcrypt hash.
// An unset hash rejects every secret.
func (s *ReembedService) Authorize(secret string) error {
	if len(s.secretHash) == 0 || secret == "" {
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(secret)); err != nil {
		return ErrUnauthorized
	}
	return nil
}

func (s *ReembedService) Reembed(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if s.embedder == nil {
		return fmt.Errorf("%w: no embedder configured", ErrAIUnavailable)
	}
	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKnowledgeStore, err)
	}
	if entry == nil {
		return ErrFAQNotFound
	}
	text := embeddingText(entry)
	if text == "" {
		return ErrInvalidInput
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAIUnavailable, err)
	}
	if err := s.store.UpdateEmbedding(ctx, id, vec); err != nil {
		return fmt.Errorf("%w: %w", ErrKnowledgeStore, err)
	}
	return nil
}

// Backfill embeds every entry that has no embedding yet, in batches.
// A failed batch is counted and skipped.
func (s *ReembedService) Backfill(ctx context.Context) (BackfillReport, error) {
	var report BackfillReport
	if s.embedder == nil {
		return report, fmt.Errorf("%w: no embedder configured", ErrAIUnavailable)
	}
	entries, err := s.store.ListWithoutEmbedding(ctx, maxBackfillEntries)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrKnowledgeStore, err)
	}
	report.Total = len(entries)

	batch := make([]model.FAQ, 0, embeddingBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		defer func() { batch = batch[:0] }()

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = embeddingText(&batch[i])
		}
		vecs, err := s.embedder.EmbedBatch(ctx, texts)
		if err == nil && len(vecs) != len(batch) {
			err = fmt.Errorf("embedding count mismatch: got %d want %d", len(vecs), len(batch))
		}
		if err != nil {
			s.log.Warn("embed batch failed", "size", len(batch), "error", err)
			report.Failed += len(batch)
			return nil
		}
		for i := range batch {
			if err := s.store.UpdateEmbedding(ctx, batch[i].ID, vecs[i]); err != nil {
				return fmt.Errorf("%w: %w", ErrKnowledgeStore, err)
			}
			report.Embedded++
		}
		return nil
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if embeddingText(&e) == "" {
			report.Skipped++
			continue
		}
		batch = append(batch, e)
		if len(batch) == embeddingBatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}
	s.log.Info("embedding backfill finished", "total", report.Total, "embedded", report.Embedded, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func embeddingText(e *model.FAQ) string {
	return strings.TrimSpace(strings.TrimSpace(e.Question) + "\n" + strings.TrimSpace(e.Answer))
}
