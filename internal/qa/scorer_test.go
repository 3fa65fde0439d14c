package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqdesk/internal/model"
)

func entry(id, question, answer, status string) model.FAQ {
	return model.FAQ{ID: id, Question: question, Answer: answer, Status: status}
}

func TestScore(t *testing.T) {
	query := "học phí học kỳ"
	tokens := Tokenize(query)

	t.Run("published adds exactly thirty", func(t *testing.T) {
		draft := entry("1", "Lịch thi", "Xem trên cổng thông tin sinh viên.", model.FAQStatusDraft)
		published := draft
		published.Status = model.FAQStatusPublished
		assert.Equal(t, WeightPublished, Score(query, tokens, &published)-Score(query, tokens, &draft))
	})

	t.Run("status comparison ignores case", func(t *testing.T) {
		e := entry("1", "x", "", "Published")
		assert.Equal(t, WeightPublished, Score("zz", nil, &e))
	})

	t.Run("exact question collects all containment bonuses", func(t *testing.T) {
		e := entry("1", "Học phí học kỳ", "", model.FAQStatusDraft)
		want := WeightExactQuestion + WeightQuestionInQuery + WeightQueryInQuestion + 3*WeightTokenInQuestion
		assert.Equal(t, want, Score(query, tokens, &e))
	})

	t.Run("answer tokens only count when missing from question", func(t *testing.T) {
		e := entry("1", "học bổng", "phí", model.FAQStatusDraft)
		// "học" in question (+10), "phí" only in answer (+4), "kỳ" nowhere.
		assert.Equal(t, WeightTokenInQuestion+WeightTokenInAnswer, Score(query, tokens, &e))
	})

	t.Run("substantive answer bonus", func(t *testing.T) {
		short := entry("1", "zz", "ngắn", model.FAQStatusDraft)
		long := entry("2", "zz", "Một câu trả lời đủ dài để được cộng điểm.", model.FAQStatusDraft)
		assert.Equal(t, WeightSubstantive, Score("yy", nil, &long)-Score("yy", nil, &short))
	})
}

func TestRank(t *testing.T) {
	query := "đăng ký ký túc xá"
	tokens := Tokenize(query)

	tokenOnly := entry("token", "Thủ tục đăng ký", "", model.FAQStatusPublished)
	substring := entry("substring", "Hướng dẫn đăng ký ký túc xá cho tân sinh viên", "", model.FAQStatusPublished)
	exact := entry("exact", "Đăng ký ký túc xá", "", model.FAQStatusPublished)

	ranked := Rank(query, tokens, []model.FAQ{tokenOnly, substring, exact})
	require.Len(t, ranked, 3)
	assert.Equal(t, "exact", ranked[0].Entry.ID)
	assert.Equal(t, "substring", ranked[1].Entry.ID)
	assert.Equal(t, "token", ranked[2].Entry.ID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	assert.Greater(t, ranked[1].Score, ranked[2].Score)
}

func TestRankIsStableAndDeterministic(t *testing.T) {
	entries := []model.FAQ{
		entry("a", "alpha", "", model.FAQStatusDraft),
		entry("b", "beta", "", model.FAQStatusDraft),
		entry("c", "gamma", "", model.FAQStatusPublished),
		entry("d", "delta", "", model.FAQStatusDraft),
	}

	first := Rank("omega", nil, entries)
	second := Rank("omega", nil, entries)
	assert.Equal(t, first, second)

	ids := make([]string, len(first))
	for i, c := range first {
		ids[i] = c.Entry.ID
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids)
}
