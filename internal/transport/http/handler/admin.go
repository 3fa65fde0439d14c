package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"faqdesk/internal/app"
	"faqdesk/internal/transport/http/response"
)

type AdminHandler struct {
	reembedService *app.ReembedService
}

type ReembedRequest struct {
	Secret string `json:"secret"`
	ID     string `json:"id"`
}

func NewAdminHandler(reembedService *app.ReembedService) *AdminHandler {
	return &AdminHandler{reembedService: reembedService}
}

func (h *AdminHandler) Reembed(c *gin.Context) {
	var req ReembedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if err := h.reembedService.Authorize(req.Secret); err != nil {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
		return
	}

	if err := h.reembedService.Reembed(c.Request.Context(), req.ID); err != nil {
		_ = c.Error(err)
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing id")
		case errors.Is(err, app.ErrFAQNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "faq not found")
		case errors.Is(err, app.ErrAIUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeAIUnavailable, "embedding failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "reembed failed")
		}
		return
	}

	response.OK(c, gin.H{"id": req.ID, "reembedded": true})
}
