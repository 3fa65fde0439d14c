package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"faqdesk/internal/model"
	"faqdesk/internal/pkg/logger"
)

const (
	minSuggestQueryChars = 2
	suggestCandidates    = 30
	suggestResults       = 10
)

type SuggestStore interface {
	SearchQuestion(ctx context.Context, text string, limit int) ([]model.FAQ, error)
}

type SuggestCache interface {
	Get(ctx context.Context, query string) ([]model.FAQ, bool, error)
	Set(ctx context.Context, query string, items []model.FAQ) error
}

type SuggestItem struct {
	ID       string  `json:"id"`
	Question string  `json:"question"`
	Group    *string `json:"group"`
	Status   string  `json:"status"`
}

type SuggestService struct {
	store SuggestStore
	cache SuggestCache
	log   *logger.Logger
}

func NewSuggestService(store SuggestStore, cache SuggestCache, log *logger.Logger) *SuggestService {
	if log == nil {
		log = logger.Nop()
	}
	return &SuggestService{store: store, cache: cache, log: log}
}

// Suggest returns up to ten questions containing query, published entries
// first and shorter questions before longer ones.
func (s *SuggestService) Suggest(ctx context.Context, query string) ([]SuggestItem, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSuggestQueryChars {
		return []SuggestItem{}, nil
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, query)
		if err != nil {
			s.log.Warn("suggest cache get failed", "error", err)
		} else if ok {
			return toSuggestItems(cached), nil
		}
	}

	list, err := s.store.SearchQuestion(ctx, query, suggestCandidates)
	if err != nil {
		return []SuggestItem{}, fmt.Errorf("%w: %w", ErrKnowledgeStore, err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := list[i].IsPublished(), list[j].IsPublished()
		if pi != pj {
			return pi
		}
		return utf8.RuneCountInString(list[i].Question) < utf8.RuneCountInString(list[j].Question)
	})
	if len(list) > suggestResults {
		list = list[:suggestResults]
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, query, list); err != nil {
			s.log.Warn("suggest cache set failed", "error", err)
		}
	}
	return toSuggestItems(list), nil
}

func toSuggestItems(list []model.FAQ) []SuggestItem {
	items := make([]SuggestItem, 0, len(list))
	for _, e := range list {
		items = append(items, SuggestItem{ID: e.ID, Question: e.Question, Group: e.Group, Status: e.Status})
	}
	return items
}
