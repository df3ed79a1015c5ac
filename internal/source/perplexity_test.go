package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/internal/config"
)

func TestCompleteRoundTrip(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer pk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  2026-02-25\n"}},
			},
		})
	}))
	defer srv.Close()

	client := NewPerplexity(config.PerplexityConfig{
		BaseURL: srv.URL, Model: "sonar", MaxTokens: 1000, RatePerSecond: 1000, Burst: 10,
	}, "pk-test")

	out, err := client.Complete(context.Background(), "when did NVDA report?", 60)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-25", out)
	assert.Equal(t, "sonar", gotReq.Model)
	assert.Equal(t, 60, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}

func TestCompleteDefaultsMaxTokens(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	client := NewPerplexity(config.PerplexityConfig{
		BaseURL: srv.URL, Model: "sonar", MaxTokens: 1000, RatePerSecond: 1000, Burst: 10,
	}, "pk-test")

	_, err := client.Complete(context.Background(), "prompt", 0)
	require.NoError(t, err)
	assert.Equal(t, 1000, gotReq.MaxTokens)
}

func TestCompleteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewPerplexity(config.PerplexityConfig{
		BaseURL: srv.URL, Model: "sonar", RatePerSecond: 1000, Burst: 10,
	}, "bad")
	_, err := client.Complete(context.Background(), "prompt", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer empty.Close()

	client = NewPerplexity(config.PerplexityConfig{
		BaseURL: empty.URL, Model: "sonar", RatePerSecond: 1000, Burst: 10,
	}, "pk")
	_, err = client.Complete(context.Background(), "prompt", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}
