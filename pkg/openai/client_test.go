package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletionJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-5-nano", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"{\"three_reason\":[\"a\"]}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-5-nano", 5*time.Second)
	content, err := client.ChatCompletionJSON(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.JSONEq(t, `{"three_reason":["a"]}`, content)
}

func TestChatCompletionJSONUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-5-nano", 5*time.Second)
	_, err := client.ChatCompletionJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestChatCompletionJSONNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"chatcmpl-1","choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-5-nano", 5*time.Second)
	_, err := client.ChatCompletionJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatCompletionJSONMissingKey(t *testing.T) {
	client := NewClient("https://api.openai.com/v1", "", "gpt-5-nano", 5*time.Second)
	_, err := client.ChatCompletionJSON(context.Background(), "s", "u")
	assert.Error(t, err)
}
