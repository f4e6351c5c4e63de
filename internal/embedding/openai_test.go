package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/sentiment_radar/internal/model"
)

func TestEmbedStringsRestoresInputOrder(t *testing.T) {
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotInput = body.Input
		require.Equal(t, "test-embed", body.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "test-embed",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "test-embed")
	vecs, err := c.EmbedStrings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, gotInput)
	require.Equal(t, [][]float64{{1, 0}, {0, 1}}, vecs)
}

func TestEmbedStringsClassifiesThrottling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "test-embed")
	_, err := c.EmbedStrings(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	require.True(t, model.IsRateLimit(err))
}

func TestEmbedStringsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "model": "m", "data": [
			{"object": "embedding", "index": 0, "embedding": [1, 0]}
		], "usage": {"prompt_tokens": 1, "total_tokens": 1}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "m")
	_, err := c.EmbedStrings(context.Background(), []string{"a", "b"})
	require.True(t, model.IsSchema(err))
}

func TestNormalizeBaseURL(t *testing.T) {
	require.Equal(t, "", normalizeBaseURL(""))
	require.Equal(t, "https://api.example.com/v1/", normalizeBaseURL("https://api.example.com"))
	require.Equal(t, "https://api.example.com/v1/", normalizeBaseURL("https://api.example.com/v1/"))
	require.Equal(t, "https://proxy.local/openai/v1/", normalizeBaseURL("https://proxy.local/openai"))
}
