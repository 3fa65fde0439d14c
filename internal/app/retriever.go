package app

import (
	"context"
	"fmt"

	"faqdesk/internal/model"
)

// KnowledgeStore is the read side of the FAQ table used by retrieval.
type KnowledgeStore interface {
	SearchQuestion(ctx context.Context, text string, limit int) ([]model.FAQ, error)
	SearchAnyToken(ctx context.Context, tokens []string, limit int) ([]model.FAQ, error)
	SearchQuestionTokens(ctx context.Context, tokens []string, limit int) ([]model.FAQ, error)
	Sample(ctx context.Context, limit int) ([]model.FAQ, error)
}

type Stage int

const (
	StageExact Stage = iota + 1
	StageTokens
	StageSemantic
	StageSuggestions
)

func (s Stage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageTokens:
		return "tokens"
	case StageSemantic:
		return "semantic"
	case StageSuggestions:
		return "suggestions"
	}
	return "unknown"
}

type RetrievalLimits struct {
	Exact       int
	Tokens      int
	Suggestions int
}

func (l RetrievalLimits) withDefaults() RetrievalLimits {
	if l.Exact <= 0 {
		l.Exact = 40
	}
	if l.Tokens <= 0 {
		l.Tokens = 120
	}
	if l.Suggestions <= 0 {
		l.Suggestions = 10
	}
	return l
}

// Retrieval is the output of the first stage that produced something.
// Candidates are set by the lexical stages, Semantic by the semantic stage
// and Suggestions by the last stage.
type Retrieval struct {
	Stage       Stage
	Candidates  []model.FAQ
	Semantic    *SemanticMatch
	Suggestions []model.FAQ
}

func (r Retrieval) empty() bool {
	return len(r.Candidates) == 0 && r.Semantic == nil && len(r.Suggestions) == 0
}

type stage struct {
	id  Stage
	run func(ctx context.Context, query string, tokens []string) (Retrieval, error)
}

// Retriever runs the retrieval stages in order and stops at the first one
// that returns a non-empty result. Store failures abort retrieval.
type Retriever struct {
	store    KnowledgeStore
	limits   RetrievalLimits
	semantic *SemanticMatcher
}

func NewRetriever(store KnowledgeStore, limits RetrievalLimits, semantic *SemanticMatcher) *Retriever {
	return &Retriever{
		store:    store,
		limits:   limits.withDefaults(),
		semantic: semantic,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, tokens []string) (Retrieval, error) {
	for _, st := range r.stages() {
		res, err := st.run(ctx, query, tokens)
		if err != nil {
			return Retrieval{}, fmt.Errorf("%w: %s stage: %w", ErrKnowledgeStore, st.id, err)
		}
		if !res.empty() {
			res.Stage = st.id
			return res, nil
		}
	}
	return Retrieval{Stage: StageSuggestions}, nil
}

// Suggestions runs only the last stage.
func (r *Retriever) Suggestions(ctx context.Context, tokens []string) ([]model.FAQ, error) {
	res, err := r.suggestions(ctx, "", tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %s stage: %w", ErrKnowledgeStore, StageSuggestions, err)
	}
	return res.Suggestions, nil
}

func (r *Retriever) stages() []stage {
	stages := []stage{
		{id: StageExact, run: r.exact},
		{id: StageTokens, run: r.tokenUnion},
	}
	if r.semantic != nil {
		stages = append(stages, stage{id: StageSemantic, run: r.semanticMatch})
	}
	return append(stages, stage{id: StageSuggestions, run: r.suggestions})
}

func (r *Retriever) exact(ctx context.Context, query string, _ []string) (Retrieval, error) {
	list, err := r.store.SearchQuestion(ctx, query, r.limits.Exact)
	return Retrieval{Candidates: list}, err
}

func (r *Retriever) tokenUnion(ctx context.Context, _ string, tokens []string) (Retrieval, error) {
	if len(tokens) == 0 {
		return Retrieval{}, nil
	}
	list, err := r.store.SearchAnyToken(ctx, tokens, r.limits.Tokens)
	return Retrieval{Candidates: list}, err
}

// semanticMatch never fails retrieval; matcher errors mean no match.
func (r *Retriever) semanticMatch(ctx context.Context, query string, _ []string) (Retrieval, error) {
	match, ok := r.semantic.Match(ctx, query)
	if !ok {
		return Retrieval{}, nil
	}
	return Retrieval{Semantic: match}, nil
}

func (r *Retriever) suggestions(ctx context.Context, _ string, tokens []string) (Retrieval, error) {
	if len(tokens) > 0 {
		list, err := r.store.SearchQuestionTokens(ctx, tokens, r.limits.Suggestions)
		if err != nil {
			return Retrieval{}, err
		}
		if len(list) > 0 {
			return Retrieval{Suggestions: list}, nil
		}
	}
	list, err := r.store.Sample(ctx, r.limits.Suggestions)
	return Retrieval{Suggestions: list}, err
}
