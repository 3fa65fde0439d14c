package app

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrEmptyQuestion  = errors.New("question is empty")
	ErrKnowledgeStore = errors.New("knowledge store unavailable")
	ErrAIUnavailable  = errors.New("ai providers unavailable")
	ErrQuotaExceeded  = errors.New("ai quota exceeded")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrFAQNotFound    = errors.New("faq not found")
)
