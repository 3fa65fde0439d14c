package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqdesk/internal/model"
	"faqdesk/internal/qa"
)

func newAskService(env *testEnv, signer *fakeSigner, ai *AIService, sink ChatLogSink, semantic *SemanticMatcher) *AskService {
	if sink == nil {
		sink = env.logs
	}
	retriever := NewRetriever(env.faqs, RetrievalLimits{}, semantic)
	resolver := NewAttachmentResolver(env.attachments, signer, "faq-files", 0, nil)
	return NewAskService(retriever, resolver, ai, NewInteractionLogger(sink, nil), AskOptions{}, nil)
}

func TestAskService_ExactMatch(t *testing.T) {
	env := newTestEnv(t)
	entry := env.addFAQ(t, "xin giấy xác nhận sinh viên", "1) Viết đơn\n2) Nộp phòng CTSV", "published", strPtr("Công tác sinh viên"))
	env.addFAQ(t, "mẫu giấy xác nhận vay vốn", "Tải mẫu trên website.", "published", nil)
	env.attach(t, entry.ID, model.Attachment{Path: "forms/20240105093000_don-xac-nhan.pdf"})

	svc := newAskService(env, newFakeSigner(), nil, nil, nil)
	res, err := svc.Ask(context.Background(), AskInput{Question: "  xin giấy xác nhận sinh viên ", ClientIP: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)

	assert.Equal(t, ModeFAQ, res.Mode)
	require.NotNil(t, res.Matched)
	assert.Equal(t, entry.ID, res.Matched.ID)
	assert.True(t, strings.HasPrefix(res.Answer, "Tiêu đề: Công tác sinh viên\n\nCác bước:\n1) Viết đơn\n2) Nộp phòng CTSV"))
	require.Len(t, res.Attachments, 1)
	assert.Equal(t, "don-xac-nhan.pdf", res.Attachments[0].Name)
	assert.Equal(t, "https://signed.example/faq-files/forms/20240105093000_don-xac-nhan.pdf?ttl=15m0s", res.Attachments[0].URL)
	assert.Empty(t, res.Suggestions)

	logs := env.chatLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogSourceFAQ, logs[0].Source)
	assert.Equal(t, ScopeInternal, logs[0].Scope)
	assert.Equal(t, "xin giấy xác nhận sinh viên", logs[0].Question)
	require.NotNil(t, logs[0].FAQID)
	assert.Equal(t, entry.ID, *logs[0].FAQID)
	require.NotNil(t, logs[0].MatchedScore)
	assert.Greater(t, *logs[0].MatchedScore, 120)
	assert.Equal(t, 1, logs[0].AttachmentCount)
	require.NotNil(t, logs[0].IP)
	assert.Equal(t, "10.0.0.1", *logs[0].IP)
}

func TestAskService_RanksAndSuggestsRunnersUp(t *testing.T) {
	env := newTestEnv(t)
	first := env.addFAQ(t, "học phí học kỳ 1", "Xem thông báo của phòng tài chính.", "published", nil)
	second := env.addFAQ(t, "miễn giảm học phí", "Nộp đơn kèm giấy tờ chứng minh.", "published", nil)
	draft := env.addFAQ(t, "học phí năm sau", "Chưa công bố.", "draft", nil)
	env.addFAQ(t, "lịch thi", "Xem cổng thông tin.", "published", nil)

	svc := newAskService(env, newFakeSigner(), nil, nil, nil)
	res, err := svc.Ask(context.Background(), AskInput{Question: "học phí"})
	require.NoError(t, err)

	assert.Equal(t, ModeFAQ, res.Mode)
	assert.Equal(t, first.ID, res.Matched.ID)
	require.Len(t, res.Suggestions, 2)
	assert.Equal(t, second.ID, res.Suggestions[0].ID)
	assert.Equal(t, draft.ID, res.Suggestions[1].ID)
	assert.Equal(t, []SignedAttachment{}, res.Attachments)
}

func TestAskService_SuggestionsAreCapped(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 9; i++ {
		env.addFAQ(t, "thẻ sinh viên "+strings.Repeat("x", i+1), "Liên hệ phòng CTSV.", "published", nil)
	}
	svc := newAskService(env, newFakeSigner(), nil, nil, nil)

	res, err := svc.Ask(context.Background(), AskInput{Question: "thẻ sinh viên"})
	require.NoError(t, err)
	assert.Equal(t, ModeFAQ, res.Mode)
	assert.Len(t, res.Suggestions, 5)
}

func TestAskService_Fallback(t *testing.T) {
	env := newTestEnv(t)
	env.addFAQ(t, "học bổng", "Xem thông báo.", "published", nil)
	env.addFAQ(t, "lịch thi", "Xem cổng thông tin.", "published", nil)

	svc := newAskService(env, newFakeSigner(), nil, nil, nil)
	res, err := svc.Ask(context.Background(), AskInput{Question: "zzzz qqqq"})
	require.NoError(t, err)

	assert.Equal(t, ModeFallback, res.Mode)
	assert.Equal(t, qa.FallbackAnswer([]string{"zzzz", "qqqq"}), res.Answer)
	assert.Nil(t, res.Matched)
	assert.Empty(t, res.Attachments)
	assert.Len(t, res.Suggestions, 2)

	logs := env.chatLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogSourceFallback, logs[0].Source)
	assert.Nil(t, logs[0].FAQID)
	assert.Nil(t, logs[0].MatchedScore)
}

func TestAskService_FallbackOnPunctuationOnlyQuestion(t *testing.T) {
	env := newTestEnv(t)
	env.addFAQ(t, "học bổng", "Xem thông báo.", "published", nil)

	svc := newAskService(env, newFakeSigner(), nil, nil, nil)
	res, err := svc.Ask(context.Background(), AskInput{Question: "???"})
	require.NoError(t, err)
	assert.Equal(t, ModeFallback, res.Mode)
	assert.Contains(t, res.Answer, "Từ khoá đã nhận: (không có)")
	assert.Len(t, res.Suggestions, 1)
}

func TestAskService_EmptyQuestion(t *testing.T) {
	env := newTestEnv(t)
	sink := &recordingSink{}
	svc := newAskService(env, newFakeSigner(), nil, sink, nil)

	_, err := svc.Ask(context.Background(), AskInput{Question: "  \x00 "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, sink.entries)
}

func TestAskService_StoreFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.addFAQ(t, "học bổng", "Xem thông báo.", "published", nil)
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	sink := &recordingSink{}
	svc := newAskService(env, newFakeSigner(), nil, sink, nil)
	res, err := svc.Ask(context.Background(), AskInput{Question: "học bổng"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrKnowledgeStore)
	assert.Empty(t, sink.entries)
}

func TestAskService_LoggingFailureDoesNotChangeAnswer(t *testing.T) {
	env := newTestEnv(t)
	env.addFAQ(t, "học bổng", "Xem thông báo.", "published", nil)

	sink := &failingSink{}
	withFailingLog := newAskService(env, newFakeSigner(), nil, sink, nil)
	withLog := newAskService(env, newFakeSigner(), nil, &recordingSink{}, nil)

	got, err := withFailingLog.Ask(context.Background(), AskInput{Question: "học bổng"})
	require.NoError(t, err)
	want, err := withLog.Ask(context.Background(), AskInput{Question: "học bổng"})
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, 1, sink.calls)
}

func TestAskService_AttachmentFailureStillAnswers(t *testing.T) {
	env := newTestEnv(t)
	entry := env.addFAQ(t, "học bổng", "Xem thông báo.", "published", nil)
	env.attach(t, entry.ID, model.Attachment{Path: "a.pdf"})

	signer := newFakeSigner()
	signer.failBucket["faq-files"] = true
	svc := newAskService(env, signer, nil, nil, nil)

	res, err := svc.Ask(context.Background(), AskInput{Question: "học bổng"})
	require.NoError(t, err)
	assert.Equal(t, ModeFAQ, res.Mode)
	assert.Empty(t, res.Attachments)

	logs := env.chatLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, 0, logs[0].AttachmentCount)
}

func TestAskService_StudyScopeUsesAI(t *testing.T) {
	env := newTestEnv(t)
	gen := &fakeGenerator{name: "gemini", answer: "Đạo hàm của x^2 là 2x."}
	svc := newAskService(env, newFakeSigner(), NewAIService([]TextGenerator{gen}, "gemini", 0, nil), nil, nil)

	res, err := svc.Ask(context.Background(), AskInput{Question: "đạo hàm x^2", Scope: "study"})
	require.NoError(t, err)
	assert.Equal(t, ModeAI, res.Mode)
	assert.Equal(t, "Đạo hàm của x^2 là 2x.", res.Answer)
	assert.Equal(t, "gemini", res.Provider)
	assert.Equal(t, studySystemPrompt, gen.systems[0])
	assert.Equal(t, "đạo hàm x^2", gen.prompts[0])

	logs := env.chatLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogSourceAI, logs[0].Source)
	assert.Equal(t, ScopeStudy, logs[0].Scope)
}

func TestAskService_StudyScopeFailure(t *testing.T) {
	env := newTestEnv(t)
	gen := &fakeGenerator{name: "gemini", err: errors.New("503")}
	svc := newAskService(env, newFakeSigner(), NewAIService([]TextGenerator{gen}, "gemini", 0, nil), nil, nil)

	_, err := svc.Ask(context.Background(), AskInput{Question: "đạo hàm", Scope: "study"})
	assert.ErrorIs(t, err, ErrAIUnavailable)

	svc = newAskService(env, newFakeSigner(), nil, nil, nil)
	_, err = svc.Ask(context.Background(), AskInput{Question: "đạo hàm", Scope: "study"})
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Empty(t, env.chatLogs(t))
}

func TestAskService_SemanticMatch(t *testing.T) {
	env := newTestEnv(t)
	entry := env.addFAQ(t, "nội trú", "Liên hệ ban quản lý.", "published", strPtr("Nội trú"))
	env.addFAQ(t, "lịch thi", "Xem cổng thông tin.", "published", nil)
	require.NoError(t, env.faqs.UpdateEmbedding(context.Background(), entry.ID, []float32{1, 0, 0}))

	embedder := &fakeEmbedder{vectors: map[string][]float32{"accommodation": {1, 0, 0}}}
	matcher := NewSemanticMatcher(embedder, env.faqs, 0.72, 0, nil)
	svc := newAskService(env, newFakeSigner(), nil, nil, matcher)

	res, err := svc.Ask(context.Background(), AskInput{Question: "accommodation please"})
	require.NoError(t, err)
	assert.Equal(t, ModeFAQ, res.Mode)
	assert.Equal(t, entry.ID, res.Matched.ID)
	assert.True(t, strings.HasPrefix(res.Answer, "Tiêu đề: Nội trú"))

	logs := env.chatLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, 100, *logs[0].MatchedScore)

	res, err = svc.Ask(context.Background(), AskInput{Question: "something unrelated"})
	require.NoError(t, err)
	assert.Equal(t, ModeFallback, res.Mode)
}
