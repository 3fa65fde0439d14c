package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"faqdesk/internal/model"
)

type ChatLogRepository struct {
	db *gorm.DB
}

func NewChatLogRepository(db *gorm.DB) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

// Append inserts one interaction record.
func (r *ChatLogRepository) Append(ctx context.Context, entry *model.ChatLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create chat log failed: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first. Used to inspect what was logged.
func (r *ChatLogRepository) ListRecent(ctx context.Context, limit int) ([]model.ChatLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var list []model.ChatLog
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list chat logs failed: %w", err)
	}
	return list, nil
}
