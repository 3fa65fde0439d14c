package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqdesk/internal/app"
	"faqdesk/internal/model"
)

type brokenSuggestStore struct{}

func (brokenSuggestStore) SearchQuestion(context.Context, string, int) ([]model.FAQ, error) {
	return nil, errors.New("Error 1045 (28000): Access denied for user 'faq'@'10.0.0.5'")
}

func TestSuggestHandler_StoreErrorHidesDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSuggestHandler(app.NewSuggestService(brokenSuggestStore{}, nil, nil))
	r := gin.New()
	r.GET("/suggest", h.Suggest)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/suggest?q=học+phí", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Items []app.SuggestItem `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 50001, body.Code)
	assert.Equal(t, messageSuggestUnavailable, body.Message)
	assert.Empty(t, body.Data.Items)
	assert.NotContains(t, w.Body.String(), "Access denied")
}
