package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Generate(t *testing.T) {
	var gotReq openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hello there  "}}]}`))
	}))
	defer server.Close()

	provider, err := NewProvider("openai", map[string]interface{}{
		"api_key":  "test-key",
		"base_url": server.URL + "/v1",
	})
	require.NoError(t, err)

	text, err := provider.Generate(context.Background(), "test-model", "say hi", GenOptions{Temperature: 0.2, MaxOutputTokens: 64})
	require.NoError(t, err)
	require.Equal(t, "hello there", text)
	require.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	require.Equal(t, "say hi", gotReq.Messages[0].Content)
	require.InDelta(t, 0.2, gotReq.Temperature, 1e-9)
	require.Equal(t, 64, gotReq.MaxTokens)
}

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer server.Close()

	provider, err := NewProvider("openai", map[string]interface{}{
		"api_key":  "test-key",
		"base_url": server.URL + "/v1",
	})
	require.NoError(t, err)

	embedding, err := provider.Embed(context.Background(), "embed-model", "text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
}

func TestOpenAIProvider_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	provider, err := NewProvider("openai", map[string]interface{}{
		"api_key":  "test-key",
		"base_url": server.URL,
	})
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), "m", "p", GenOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestOpenAIProvider_MissingKeyUnavailable(t *testing.T) {
	provider, err := NewProvider("openai", map[string]interface{}{})
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), "m", "p", GenOptions{})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("does-not-exist", nil)
	require.Error(t, err)
}
