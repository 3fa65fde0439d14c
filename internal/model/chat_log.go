package model

import "time"

const (
	LogSourceFAQ      = "faq"
	LogSourceFallback = "fallback"
	LogSourceAI       = "ai"
)

// ChatLog is one recorded question/answer interaction.
type ChatLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Scope           string    `gorm:"size:32;not null;index" json:"scope"`
	Source          string    `gorm:"size:16;not null;index" json:"source"`
	Question        string    `gorm:"type:text;not null" json:"question"`
	FAQID           *string   `gorm:"column:faq_id;size:36;index" json:"faq_id"`
	MatchedScore    *int      `json:"matched_score"`
	AttachmentCount int       `json:"attachment_count"`
	IP              *string   `gorm:"size:64" json:"ip"`
	UserAgent       *string   `gorm:"size:512" json:"user_agent"`
	CreatedAt       time.Time `json:"created_at"`
}

func (ChatLog) TableName() string {
	return "log_chat"
}
