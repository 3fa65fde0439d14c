package app

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"faqdesk/internal/model"
	"faqdesk/internal/pkg/logger"
	"faqdesk/internal/qa"
)

const (
	ModeFAQ      = "faq"
	ModeFallback = "fallback"
	ModeAI       = "ai"

	ScopeInternal = "internal"
	ScopeStudy    = "study"

	maxQuestionChars        = 500
	defaultMatchSuggestions = 5
)

type AskInput struct {
	Question  string
	Scope     string
	ClientIP  string
	UserAgent string
}

type EntryRef struct {
	ID       string  `json:"id"`
	Question string  `json:"question"`
	Group    *string `json:"group"`
}

type AskResult struct {
	Mode        string             `json:"mode"`
	Answer      string             `json:"answer"`
	Matched     *EntryRef          `json:"matched,omitempty"`
	Attachments []SignedAttachment `json:"attachments"`
	Suggestions []EntryRef         `json:"suggestions"`
	Provider    string             `json:"provider,omitempty"`
}

type AskOptions struct {
	MaxAnswerChars   int
	MatchSuggestions int
}

// AskService answers a question from the knowledge base, or with the
// fixed fallback guidance when nothing relevant is found.
type AskService struct {
	retriever   *Retriever
	attachments *AttachmentResolver
	ai          *AIService
	interaction *InteractionLogger
	opts        AskOptions
	log         *logger.Logger
}

func NewAskService(
	retriever *Retriever,
	attachments *AttachmentResolver,
	ai *AIService,
	interaction *InteractionLogger,
	opts AskOptions,
	log *logger.Logger,
) *AskService {
	if opts.MaxAnswerChars <= 0 {
		opts.MaxAnswerChars = qa.DefaultMaxAnswerChars
	}
	if opts.MatchSuggestions <= 0 {
		opts.MatchSuggestions = defaultMatchSuggestions
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AskService{
		retriever:   retriever,
		attachments: attachments,
		ai:          ai,
		interaction: interaction,
		opts:        opts,
		log:         log,
	}
}

func (s *AskService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := cleanQuestion(input.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	scope := NormalizeScope(input.Scope)
	if scope == ScopeStudy {
		return s.askAI(ctx, input, question, scope)
	}

	tokens := qa.Tokenize(question)
	ret, err := s.retriever.Retrieve(ctx, question, tokens)
	if err != nil {
		s.log.Error("retrieve faq failed", "error", err)
		return nil, err
	}

	switch ret.Stage {
	case StageExact, StageTokens:
		ranked := qa.Rank(question, tokens, ret.Candidates)
		if ranked[0].Score > 0 {
			return s.answer(ctx, input, scope, question, ranked[0].Entry, ranked[0].Score, ranked[1:]), nil
		}
		suggestions, err := s.retriever.Suggestions(ctx, tokens)
		if err != nil {
			s.log.Error("retrieve suggestions failed", "error", err)
			return nil, err
		}
		return s.fallback(ctx, input, scope, question, tokens, suggestions), nil
	case StageSemantic:
		score := int(math.Round(ret.Semantic.Similarity * 100))
		return s.answer(ctx, input, scope, question, ret.Semantic.Entry, score, nil), nil
	default:
		return s.fallback(ctx, input, scope, question, tokens, ret.Suggestions), nil
	}
}

func (s *AskService) answer(ctx context.Context, input AskInput, scope, question string, entry model.FAQ, score int, rest []qa.Candidate) *AskResult {
	attachments := s.attachments.Resolve(ctx, entry.ID)

	s.interaction.Record(ctx, LogRecord{
		Scope:           scope,
		Source:          model.LogSourceFAQ,
		Question:        question,
		FAQID:           entry.ID,
		Score:           &score,
		AttachmentCount: len(attachments),
		ClientIP:        input.ClientIP,
		UserAgent:       input.UserAgent,
	})

	if len(rest) > s.opts.MatchSuggestions {
		rest = rest[:s.opts.MatchSuggestions]
	}
	suggestions := make([]EntryRef, 0, len(rest))
	for _, c := range rest {
		suggestions = append(suggestions, toEntryRef(c.Entry))
	}

	matched := toEntryRef(entry)
	return &AskResult{
		Mode:        ModeFAQ,
		Answer:      qa.FormatAnswer(question, entry.GroupName(), entry.Answer, s.opts.MaxAnswerChars),
		Matched:     &matched,
		Attachments: attachments,
		Suggestions: suggestions,
	}
}

func (s *AskService) fallback(ctx context.Context, input AskInput, scope, question string, tokens []string, entries []model.FAQ) *AskResult {
	s.interaction.Record(ctx, LogRecord{
		Scope:     scope,
		Source:    model.LogSourceFallback,
		Question:  question,
		ClientIP:  input.ClientIP,
		UserAgent: input.UserAgent,
	})

	suggestions := make([]EntryRef, 0, len(entries))
	for _, e := range entries {
		suggestions = append(suggestions, toEntryRef(e))
	}
	return &AskResult{
		Mode:        ModeFallback,
		Answer:      qa.FallbackAnswer(tokens),
		Attachments: []SignedAttachment{},
		Suggestions: suggestions,
	}
}

func (s *AskService) askAI(ctx context.Context, input AskInput, question, scope string) (*AskResult, error) {
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}
	res, err := s.ai.Answer(ctx, AIInput{Question: question, Purpose: PurposeStudy})
	if err != nil {
		s.log.Warn("study answer failed", "error", err)
		return nil, err
	}

	s.interaction.Record(ctx, LogRecord{
		Scope:     scope,
		Source:    model.LogSourceAI,
		Question:  question,
		ClientIP:  input.ClientIP,
		UserAgent: input.UserAgent,
	})
	return &AskResult{
		Mode:        ModeAI,
		Answer:      res.Answer,
		Attachments: []SignedAttachment{},
		Suggestions: []EntryRef{},
		Provider:    res.ProviderUsed,
	}, nil
}

func toEntryRef(e model.FAQ) EntryRef {
	return EntryRef{ID: e.ID, Question: e.Question, Group: e.Group}
}

func cleanQuestion(q string) string {
	q = strings.TrimSpace(strings.ReplaceAll(q, "\x00", ""))
	if utf8.RuneCountInString(q) > maxQuestionChars {
		q = strings.TrimSpace(string([]rune(q)[:maxQuestionChars]))
	}
	return q
}

// NormalizeScope maps "study" and "ai" to ScopeStudy and anything else to
// ScopeInternal.
func NormalizeScope(scope string) string {
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case ScopeStudy, "ai":
		return ScopeStudy
	default:
		return ScopeInternal
	}
}
