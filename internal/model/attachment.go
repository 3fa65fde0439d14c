package model

import "time"

// AttachmentLink associates a FAQ entry with an uploaded attachment.
// Link order (ID ascending) is the display order.
type AttachmentLink struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FAQID        string    `gorm:"column:faq_id;size:36;not null;index" json:"faq_id"`
	AttachmentID string    `gorm:"size:36;not null;index" json:"attachment_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (AttachmentLink) TableName() string {
	return "faq_attachments"
}

type Attachment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Path      string    `gorm:"column:file_path;size:1024;not null" json:"path"`
	Name      string    `gorm:"column:file_name;size:255" json:"name"`
	Bucket    string    `gorm:"size:128" json:"bucket"`
	CreatedAt time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}
