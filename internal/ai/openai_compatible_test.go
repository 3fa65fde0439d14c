package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatibleClient_Generate(t *testing.T) {
	var got struct {
		Model    string        `json:"model"`
		Messages []ChatMessage `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  xin chào  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClient("", ChatConfig{BaseURL: srv.URL + "/", APIKey: "k", Model: "m"}, EmbeddingConfig{}, 0)
	out, err := c.Generate(context.Background(), "sys", "hỏi")
	require.NoError(t, err)
	assert.Equal(t, "xin chào", out)
	assert.Equal(t, ProviderGroq, c.Name())
	assert.Equal(t, "m", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hỏi", got.Messages[1].Content)
}

func TestOpenAICompatibleClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClient("groq", ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}, EmbeddingConfig{}, 0)
	_, err := c.Generate(context.Background(), "", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	unconfigured := NewOpenAICompatibleClient("groq", ChatConfig{BaseURL: srv.URL}, EmbeddingConfig{}, 0)
	_, err = unconfigured.Generate(context.Background(), "", "q")
	assert.Error(t, err)
	_, err = unconfigured.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestOpenAICompatibleClient_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var body struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a", "b"}, body.Input)
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0]},{"embedding":[0,1]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClient("groq", ChatConfig{}, EmbeddingConfig{BaseURL: srv.URL, APIKey: "k", Model: "e"}, 0)
	out, err := c.EmbedBatch(context.Background(), []string{" a ", "", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)

	_, err = c.EmbedBatch(context.Background(), []string{" "})
	assert.Error(t, err)
}
