package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"faqdesk/internal/pkg/logger"
	"faqdesk/internal/qa"
)

const (
	DefaultMaxAIChars = 1400
	aiTruncationNote  = "…\n\n(Đã rút gọn. Nếu cần, hãy hỏi tiếp phần cụ thể.)"

	officeSystemPrompt = "Bạn trả lời tiếng Việt, giọng văn phòng/nhà trường."
	studySystemPrompt  = "Bạn là trợ lý học tập cho sinh viên. Trả lời ngắn gọn, rõ ràng, có bước làm nếu là câu hỏi thao tác. Nếu thiếu dữ kiện, hỏi lại đúng 1-2 câu."
)

// TextGenerator is one generative provider.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type AIPurpose int

const (
	PurposeOffice AIPurpose = iota
	PurposeStudy
)

type AIInput struct {
	Question string
	Provider string
	Purpose  AIPurpose
}

type AIResult struct {
	Answer       string `json:"answer"`
	ProviderUsed string `json:"provider_used"`
}

// AIService asks the preferred provider first and falls back to the others
// in registration order.
type AIService struct {
	providers       []TextGenerator
	defaultProvider string
	maxChars        int
	log             *logger.Logger
}

func NewAIService(providers []TextGenerator, defaultProvider string, maxChars int, log *logger.Logger) *AIService {
	if maxChars <= 0 {
		maxChars = DefaultMaxAIChars
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AIService{
		providers:       providers,
		defaultProvider: strings.ToLower(strings.TrimSpace(defaultProvider)),
		maxChars:        maxChars,
		log:             log,
	}
}

func (s *AIService) Answer(ctx context.Context, input AIInput) (*AIResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("%w: no provider configured", ErrAIUnavailable)
	}

	system, prompt := officeSystemPrompt, buildOfficePrompt(question)
	if input.Purpose == PurposeStudy {
		system, prompt = studySystemPrompt, question
	}

	var errs []error
	for _, p := range s.order(input.Provider) {
		answer, err := p.Generate(ctx, system, prompt)
		if err == nil && strings.TrimSpace(answer) == "" {
			err = errors.New("empty answer")
		}
		if err != nil {
			s.log.Warn("ai provider failed", "provider", p.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		return &AIResult{
			Answer:       limitAIText(answer, s.maxChars),
			ProviderUsed: p.Name(),
		}, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrAIUnavailable, errors.Join(errs...))
}

func (s *AIService) order(preferred string) []TextGenerator {
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred == "" {
		preferred = s.defaultProvider
	}
	out := make([]TextGenerator, 0, len(s.providers))
	for _, p := range s.providers {
		if p.Name() == preferred {
			out = append(out, p)
		}
	}
	for _, p := range s.providers {
		if p.Name() != preferred {
			out = append(out, p)
		}
	}
	return out
}

func buildOfficePrompt(question string) string {
	return "Bạn là trợ lý ảo cho HSSV. Trả lời NGẮN GỌN, rõ ràng, dễ đọc.\n" +
		"- Ưu tiên gạch đầu dòng hoặc các bước 1) 2) 3)\n" +
		"- Nếu là thủ tục: nêu nơi tiếp nhận, hồ sơ cần, thời gian dự kiến, lưu ý.\n" +
		"- Tuyệt đối không lan man. Tối đa ~8-10 dòng.\n\n" +
		"Câu hỏi: " + question
}

func limitAIText(s string, maxChars int) string {
	return qa.Truncate(strings.TrimSpace(s), maxChars, aiTruncationNote)
}
