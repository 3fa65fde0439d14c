package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"faqdesk/internal/app"
	"faqdesk/internal/transport/http/response"
)

const (
	HeaderAILimit     = "X-AI-Limit"
	HeaderAIRemaining = "X-AI-Remaining"

	messageQuotaExceeded = "Bạn đã dùng hết lượt hỏi AI cho phiên này. Hãy thử lại sau hoặc dùng Tra cứu nội bộ."
)

type AIHandler struct {
	aiService *app.AIService
	gate      *AIGate
}

type AIRequest struct {
	Question string `json:"question"`
	Provider string `json:"provider"`
}

func NewAIHandler(aiService *app.AIService, gate *AIGate) *AIHandler {
	return &AIHandler{aiService: aiService, gate: gate}
}

func (h *AIHandler) Answer(c *gin.Context) {
	var req AIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeEmptyQuestion, "missing question")
		return
	}

	if !h.gate.Admit(c) {
		return
	}

	result, err := h.aiService.Answer(c.Request.Context(), app.AIInput{
		Question: req.Question,
		Provider: req.Provider,
		Purpose:  app.PurposeOffice,
	})
	if err != nil {
		_ = c.Error(err)
		switch {
		case errors.Is(err, app.ErrEmptyQuestion):
			response.Error(c, http.StatusBadRequest, response.CodeEmptyQuestion, "missing question")
		case errors.Is(err, app.ErrAIUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeAIUnavailable, "ai service unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ai failed")
		}
		return
	}

	response.OK(c, result)
}
