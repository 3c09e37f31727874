package voyage

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

func TestEmbedOrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "voyage-3-large", req.Model)
		assert.Equal(t, InputTypeQuery, req.InputType)
		require.Len(t, req.Input, 2)

		// Return the vectors out of order; the client must reassemble.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0.2]},
			{"object":"embedding","index":0,"embedding":[0.1]}
		],"model":"voyage-3-large","usage":{"total_tokens":4}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "voyage-3-large", 5*time.Second)
	vectors, err := client.Embed(context.Background(), []string{"first", "second"}, InputTypeQuery)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1}, vectors[0])
	assert.Equal(t, []float32{0.2}, vectors[1])
}

func TestEmbedRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"rate limit exceeded"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "voyage-3-large", 5*time.Second)
	_, err := client.Embed(context.Background(), []string{"x"}, InputTypeDocument)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestEmbedQuotaExhausted403(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quota exhausted","type":"forbidden"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "voyage-3-large", 5*time.Second)
	_, err := client.Embed(context.Background(), []string{"x"}, InputTypeDocument)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1]}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "voyage-3-large", 5*time.Second)
	_, err := client.Embed(context.Background(), []string{"a", "b"}, InputTypeDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestEmbedMissingKey(t *testing.T) {
	client := NewClient("https://api.voyageai.com/v1", "", "voyage-3-large", 5*time.Second)
	_, err := client.Embed(context.Background(), []string{"x"}, InputTypeQuery)
	assert.Error(t, err)
}

func TestEmbedEmptyInput(t *testing.T) {
	client := NewClient("https://api.voyageai.com/v1", "key", "voyage-3-large", 5*time.Second)
	vectors, err := client.Embed(context.Background(), nil, InputTypeQuery)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestIsRateLimitedPlainError(t *testing.T) {
	assert.False(t, IsRateLimited(assert.AnError))
	assert.False(t, IsRateLimited(&APIError{StatusCode: 500, Message: "boom"}))
}
