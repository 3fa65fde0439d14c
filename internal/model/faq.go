package model

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	FAQStatusDraft     = "draft"
	FAQStatusPublished = "published"
)

// FAQ is a curated question/answer entry of the knowledge base.
// Column names follow the deployed schema.
type FAQ struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Question  string    `gorm:"column:cau_hoi;type:text;not null" json:"question"`
	Answer    string    `gorm:"column:tra_loi;type:text" json:"answer"`
	Group     *string   `gorm:"column:nhom;size:255;index" json:"group"`
	Status    string    `gorm:"size:16;not null;default:draft;index" json:"status"`
	Embedding string    `gorm:"type:mediumtext" json:"-"` // JSON array of float32
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FAQ) TableName() string {
	return "faq"
}

func (f *FAQ) IsPublished() bool {
	return strings.EqualFold(strings.TrimSpace(f.Status), FAQStatusPublished)
}

func (f *FAQ) GroupName() string {
	if f.Group == nil {
		return ""
	}
	return strings.TrimSpace(*f.Group)
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (f *FAQ) EmbeddingVector() []float32 {
	if f.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(f.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (f *FAQ) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		f.Embedding = ""
		return
	}
	b, _ := json.Marshal(vec)
	f.Embedding = string(b)
}
