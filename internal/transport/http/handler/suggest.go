package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faqdesk/internal/app"
	"faqdesk/internal/transport/http/response"
)

const messageSuggestUnavailable = "suggestions unavailable"

type SuggestHandler struct {
	suggestService *app.SuggestService
}

func NewSuggestHandler(suggestService *app.SuggestService) *SuggestHandler {
	return &SuggestHandler{suggestService: suggestService}
}

// Suggest never fails the request: store errors come back as an empty list.
func (h *SuggestHandler) Suggest(c *gin.Context) {
	items, err := h.suggestService.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		_ = c.Error(err)
		response.Degraded(c, http.StatusOK, response.CodeKnowledgeStore, messageSuggestUnavailable, gin.H{"items": []app.SuggestItem{}})
		return
	}
	response.OK(c, gin.H{"items": items})
}
