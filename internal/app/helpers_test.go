package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"faqdesk/internal/model"
	"faqdesk/internal/repository"
)

type testEnv struct {
	db          *gorm.DB
	faqs        *repository.FAQRepository
	attachments *repository.AttachmentRepository
	logs        *repository.ChatLogRepository
	clock       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.FAQ{}, &model.AttachmentLink{}, &model.Attachment{}, &model.ChatLog{}))
	return &testEnv{
		db:          db,
		faqs:        repository.NewFAQRepository(db),
		attachments: repository.NewAttachmentRepository(db),
		logs:        repository.NewChatLogRepository(db),
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (e *testEnv) addFAQ(t *testing.T, question, answer, status string, group *string) model.FAQ {
	t.Helper()
	e.clock = e.clock.Add(time.Minute)
	faq := model.FAQ{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer,
		Status:    status,
		Group:     group,
		CreatedAt: e.clock,
	}
	require.NoError(t, e.faqs.Create(context.Background(), &faq))
	return faq
}

func (e *testEnv) attach(t *testing.T, faqID string, att model.Attachment) {
	t.Helper()
	ctx := context.Background()
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	require.NoError(t, e.attachments.Create(ctx, &att))
	require.NoError(t, e.attachments.Link(ctx, faqID, att.ID))
}

func (e *testEnv) chatLogs(t *testing.T) []model.ChatLog {
	t.Helper()
	list, err := e.logs.ListRecent(context.Background(), 100)
	require.NoError(t, err)
	return list
}

func strPtr(s string) *string {
	return &s
}

// fakeSigner signs every path as <bucket>/<path>?sig, except those listed in fail.
type fakeSigner struct {
	mu         sync.Mutex
	calls      map[string][]string
	fail       map[string]bool
	failBucket map[string]bool
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{calls: map[string][]string{}, fail: map[string]bool{}, failBucket: map[string]bool{}}
}

func (s *fakeSigner) SignURLs(_ context.Context, bucket string, paths []string, ttl time.Duration) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[bucket] = append(s.calls[bucket], paths...)
	if s.failBucket[bucket] {
		return nil, errors.New("bucket unavailable")
	}
	out := map[string]string{}
	for _, p := range paths {
		if s.fail[p] {
			continue
		}
		out[p] = "https://signed.example/" + bucket + "/" + p + "?ttl=" + ttl.String()
	}
	return out, nil
}

type fakeGenerator struct {
	name    string
	answer  string
	err     error
	mu      sync.Mutex
	prompts []string
	systems []string
}

func (g *fakeGenerator) Name() string { return g.name }

func (g *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.systems = append(g.systems, system)
	g.prompts = append(g.prompts, prompt)
	return g.answer, g.err
}

// fakeEmbedder maps text to a vector by keyword.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	batches int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	for k, v := range f.vectors {
		if strings.Contains(text, k) {
			return v, nil
		}
	}
	return []float32{0, 0, 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches++
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type failingSink struct{ calls int }

func (s *failingSink) Append(context.Context, *model.ChatLog) error {
	s.calls++
	return errors.New("log table is gone")
}

type recordingSink struct {
	mu      sync.Mutex
	entries []model.ChatLog
}

func (s *recordingSink) Append(_ context.Context, entry *model.ChatLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}
