package qa

import (
	"sort"
	"strings"
	"unicode/utf8"

	"faqdesk/internal/model"
)

// Scoring weights. The magnitudes carry no probabilistic meaning; only the
// orderings they produce matter (exact > contained > token overlap).
const (
	WeightPublished       = 30
	WeightExactQuestion   = 120
	WeightQuestionInQuery = 70
	WeightQueryInQuestion = 55
	WeightTokenInQuestion = 10
	WeightTokenInAnswer   = 4
	WeightSubstantive     = 10

	substantiveAnswerChars = 20
)

// Candidate is a knowledge-base entry with its score for one query.
type Candidate struct {
	Entry model.FAQ
	Score int
}

// Score computes the heuristic relevance of entry for query. It is a pure
// function of its arguments.
func Score(query string, tokens []string, entry *model.FAQ) int {
	q := foldQuery(query)
	cq := foldQuery(entry.Question)
	ans := strings.ToLower(entry.Answer)

	score := 0
	if entry.IsPublished() {
		score += WeightPublished
	}

	if cq == q {
		score += WeightExactQuestion
	}
	if cq != "" && strings.Contains(q, cq) {
		score += WeightQuestionInQuery
	}
	if cq != "" && strings.Contains(cq, q) {
		score += WeightQueryInQuestion
	}

	for _, t := range tokens {
		switch {
		case strings.Contains(cq, t):
			score += WeightTokenInQuestion
		case strings.Contains(ans, t):
			score += WeightTokenInAnswer
		}
	}

	if utf8.RuneCountInString(strings.TrimSpace(entry.Answer)) >= substantiveAnswerChars {
		score += WeightSubstantive
	}
	return score
}

// Rank scores every entry and sorts descending. Ties keep retrieval order.
func Rank(query string, tokens []string, entries []model.FAQ) []Candidate {
	ranked := make([]Candidate, len(entries))
	for i := range entries {
		ranked[i] = Candidate{Entry: entries[i], Score: Score(query, tokens, &entries[i])}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// foldQuery lower-cases and collapses whitespace so that spacing differences
// do not defeat the exact-match rule.
func foldQuery(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
