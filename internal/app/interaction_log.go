package app

import (
	"context"
	"strings"
	"time"

	"faqdesk/internal/model"
	"faqdesk/internal/pkg/logger"
)

const logWriteTimeout = 3 * time.Second

// ChatLogSink appends interaction records to durable storage (directly or via a queue).
type ChatLogSink interface {
	Append(ctx context.Context, entry *model.ChatLog) error
}

type LogRecord struct {
	Scope           string
	Source          string
	Question        string
	FAQID           string
	Score           *int
	AttachmentCount int
	ClientIP        string
	UserAgent       string
}

// InteractionLogger records interactions best-effort: failures are logged
// and never reach the caller.
type InteractionLogger struct {
	sink ChatLogSink
	log  *logger.Logger
}

func NewInteractionLogger(sink ChatLogSink, log *logger.Logger) *InteractionLogger {
	if log == nil {
		log = logger.Nop()
	}
	return &InteractionLogger{sink: sink, log: log}
}

func (l *InteractionLogger) Record(ctx context.Context, rec LogRecord) {
	if l == nil || l.sink == nil {
		return
	}
	entry := &model.ChatLog{
		Scope:           rec.Scope,
		Source:          rec.Source,
		Question:        rec.Question,
		FAQID:           optional(rec.FAQID),
		MatchedScore:    rec.Score,
		AttachmentCount: rec.AttachmentCount,
		IP:              optional(rec.ClientIP),
		UserAgent:       optional(rec.UserAgent),
		CreatedAt:       time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()
	if err := l.sink.Append(writeCtx, entry); err != nil {
		l.log.Warn("record interaction failed", "source", rec.Source, "error", err)
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
