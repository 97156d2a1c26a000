package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := New(Config{BaseURL: srv.URL, MaxRetries: 1, BaseDelay: time.Millisecond})
	return c, srv.Close
}

func TestChatReturnsFirstChoiceContent(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "user", req.Messages[len(req.Messages)-1].Role)

		json.NewEncoder(w).Encode(chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: "hello there"}}}})
	})
	defer closeFn()

	reply, err := c.Chat(context.Background(), "demo-model", "hi", "")
	require.NoError(t, err)
	require.Equal(t, "hello there", reply)
}

func TestHealthReturnsFalseOnFailure(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer closeFn()

	require.False(t, c.Health(context.Background()))
}

func TestHealthReturnsTrueOnSuccess(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer closeFn()

	require.True(t, c.Health(context.Background()))
}

func TestListModelsFallsBackToLegacyPath(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(modelsResponse{Models: []string{"a", "b"}})
	})
	defer closeFn()

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, models)
}

func TestSearchDocumentsWrapsResultsAsAgentData(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(retrieveResponse{Results: []map[string]any{
			{"id": "doc-1", "score": 0.9},
		}})
	})
	defer closeFn()

	results, err := c.SearchDocuments(context.Background(), "query", 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	data, ok := results[0].AsData()
	require.True(t, ok)
	id, ok := data.GetString("id")
	require.True(t, ok)
	require.Equal(t, "doc-1", id)
}

func TestEmbedReturnsVector(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	})
	defer closeFn()

	vec, err := c.Embed(context.Background(), "text", "embed-model")
	require.NoError(t, err)
	require.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}
