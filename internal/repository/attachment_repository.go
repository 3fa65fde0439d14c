package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"faqdesk/internal/model"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts an attachment row. Uploads are managed by the admin tool;
// this service only uses it to seed data.
func (r *AttachmentRepository) Create(ctx context.Context, att *model.Attachment) error {
	if err := r.db.WithContext(ctx).Create(att).Error; err != nil {
		return fmt.Errorf("create attachment failed: %w", err)
	}
	return nil
}

// Link appends attachmentID to faqID's links. Used for seeding.
func (r *AttachmentRepository) Link(ctx context.Context, faqID, attachmentID string) error {
	link := &model.AttachmentLink{FAQID: faqID, AttachmentID: attachmentID}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("link attachment failed: %w", err)
	}
	return nil
}

// ListLinksByFAQID returns links in association order.
func (r *AttachmentRepository) ListLinksByFAQID(ctx context.Context, faqID string) ([]model.AttachmentLink, error) {
	var links []model.AttachmentLink
	if err := r.db.WithContext(ctx).Where("faq_id = ?", faqID).Order("id ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list attachment links failed: %w", err)
	}
	return links, nil
}

func (r *AttachmentRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Attachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Attachment
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list attachments by ids failed: %w", err)
	}
	return list, nil
}
