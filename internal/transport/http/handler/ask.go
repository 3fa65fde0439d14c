package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"faqdesk/internal/app"
	"faqdesk/internal/transport/http/response"
)

type AskHandler struct {
	askService *app.AskService
	aiGate     *AIGate
}

type AskRequest struct {
	Question string `json:"question"`
	Scope    string `json:"scope"`
}

// NewAskHandler builds the ask endpoint. Questions routed to the generative
// path pass through aiGate like the AI endpoint does.
func NewAskHandler(askService *app.AskService, aiGate *AIGate) *AskHandler {
	return &AskHandler{askService: askService, aiGate: aiGate}
}

func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if app.NormalizeScope(req.Scope) == app.ScopeStudy && strings.TrimSpace(strings.ReplaceAll(req.Question, "\x00", "")) != "" {
		if !h.aiGate.Admit(c) {
			return
		}
	}

	result, err := h.askService.Ask(c.Request.Context(), app.AskInput{
		Question:  req.Question,
		Scope:     req.Scope,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		_ = c.Error(err)
		switch {
		case errors.Is(err, app.ErrEmptyQuestion):
			response.Error(c, http.StatusBadRequest, response.CodeEmptyQuestion, "missing question")
		case errors.Is(err, app.ErrKnowledgeStore):
			response.Error(c, http.StatusInternalServerError, response.CodeKnowledgeStore, "knowledge store unavailable")
		case errors.Is(err, app.ErrAIUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeAIUnavailable, "ai service unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
		}
		return
	}

	response.OK(c, result)
}
