package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"faqdesk/internal/model"
)

// likeClause matches case-insensitively with '!' as escape character, which
// both MySQL and SQLite accept without string-literal quirks.
const (
	questionLike = "LOWER(cau_hoi) LIKE ? ESCAPE '!'"
	answerLike   = "LOWER(tra_loi) LIKE ? ESCAPE '!'"
)

var retrievalColumns = []string{"id", "cau_hoi", "tra_loi", "nhom", "status", "created_at"}

type FAQRepository struct {
	db *gorm.DB
}

func NewFAQRepository(db *gorm.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

// Create inserts an entry. Entries are authored in the admin tool; this
// service only uses it to seed data.
func (r *FAQRepository) Create(ctx context.Context, faq *model.FAQ) error {
	if err := r.db.WithContext(ctx).Create(faq).Error; err != nil {
		return fmt.Errorf("create faq failed: %w", err)
	}
	return nil
}

// SearchQuestion returns entries whose question contains text, ignoring case.
func (r *FAQRepository) SearchQuestion(ctx context.Context, text string, limit int) ([]model.FAQ, error) {
	var list []model.FAQ
	err := r.retrieval(ctx).
		Where(questionLike, containsPattern(text)).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("search faq by question failed: %w", err)
	}
	return list, nil
}

// SearchAnyToken returns entries where any token appears in the question or the answer.
func (r *FAQRepository) SearchAnyToken(ctx context.Context, tokens []string, limit int) ([]model.FAQ, error) {
	clause, args := tokenDisjunction(tokens, questionLike, answerLike)
	if clause == "" {
		return nil, nil
	}
	var list []model.FAQ
	if err := r.retrieval(ctx).Where(clause, args...).Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("search faq by tokens failed: %w", err)
	}
	return list, nil
}

// SearchQuestionTokens returns entries where any token appears in the question.
func (r *FAQRepository) SearchQuestionTokens(ctx context.Context, tokens []string, limit int) ([]model.FAQ, error) {
	clause, args := tokenDisjunction(tokens, questionLike)
	if clause == "" {
		return nil, nil
	}
	var list []model.FAQ
	if err := r.retrieval(ctx).Where(clause, args...).Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("search faq questions by tokens failed: %w", err)
	}
	return list, nil
}

// Sample returns up to limit entries without any filter.
func (r *FAQRepository) Sample(ctx context.Context, limit int) ([]model.FAQ, error) {
	var list []model.FAQ
	if err := r.retrieval(ctx).Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("sample faq failed: %w", err)
	}
	return list, nil
}

func (r *FAQRepository) GetByID(ctx context.Context, id string) (*model.FAQ, error) {
	var faq model.FAQ
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&faq).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get faq failed: %w", err)
	}
	return &faq, nil
}

// ListWithEmbedding returns entries that carry an embedding, embedding included.
func (r *FAQRepository) ListWithEmbedding(ctx context.Context, limit int) ([]model.FAQ, error) {
	var list []model.FAQ
	err := r.db.WithContext(ctx).
		Where("embedding IS NOT NULL AND embedding <> ''").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list faq with embedding failed: %w", err)
	}
	return list, nil
}

func (r *FAQRepository) ListWithoutEmbedding(ctx context.Context, limit int) ([]model.FAQ, error) {
	var list []model.FAQ
	err := r.retrieval(ctx).
		Where("embedding IS NULL OR embedding = ''").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list faq without embedding failed: %w", err)
	}
	return list, nil
}

func (r *FAQRepository) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	var faq model.FAQ
	faq.SetEmbedding(vec)
	res := r.db.WithContext(ctx).Model(&model.FAQ{}).Where("id = ?", id).Update("embedding", faq.Embedding)
	if res.Error != nil {
		return fmt.Errorf("update faq embedding failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update faq embedding failed: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *FAQRepository) retrieval(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.FAQ{}).
		Select(retrievalColumns).
		Order("created_at ASC, id ASC")
}

func tokenDisjunction(tokens []string, columns ...string) (string, []interface{}) {
	var (
		parts []string
		args  []interface{}
	)
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		for _, col := range columns {
			parts = append(parts, col)
			args = append(args, containsPattern(t))
		}
	}
	return strings.Join(parts, " OR "), args
}

func containsPattern(text string) string {
	escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(strings.ToLower(text))
	return "%" + escaped + "%"
}
