package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelsPayload = `{
	"data": [
		{
			"id": "google/gemini-2.0-flash-exp:free",
			"name": "Gemini 2.0 Flash",
			"description": "Fast multimodal model",
			"context_length": 1000000,
			"architecture": {"modality": "text+image->text"},
			"pricing": {"prompt": "0", "completion": "0"}
		},
		{
			"id": "mistralai/mistral-nemo",
			"name": "Mistral Nemo",
			"description": "General purpose model",
			"context_length": 128000,
			"architecture": {"modality": "text->text"}
		},
		{
			"id": "",
			"name": "Broken entry without id"
		}
	]
}`

func TestCatalogFetchAndCapabilities(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(modelsPayload))
	}))
	defer srv.Close()

	catalog := NewCatalog("test-key", srv.URL, time.Hour)

	models, advisory := catalog.Models(context.Background())
	require.Empty(t, advisory)
	require.Len(t, models, 2, "entries without an id are dropped")

	gemini := models[0]
	assert.Equal(t, "google/gemini-2.0-flash-exp:free", gemini.ID)
	assert.Equal(t, 1000000, gemini.ContextLength)
	assert.True(t, gemini.Capabilities.Vision)
	assert.True(t, gemini.Capabilities.Fast)
	assert.True(t, gemini.Capabilities.Code)
	assert.True(t, gemini.Capabilities.Free)

	nemo := models[1]
	assert.False(t, nemo.Capabilities.Vision)
	assert.False(t, nemo.Capabilities.Fast)
	assert.False(t, nemo.Capabilities.Free)

	// Second call within the TTL is served from cache.
	again, advisory := catalog.Models(context.Background())
	assert.Empty(t, advisory)
	assert.Equal(t, models, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCatalogFallbackOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	catalog := NewCatalog("test-key", srv.URL, time.Hour)

	models, advisory := catalog.Models(context.Background())
	assert.NotEmpty(t, advisory)
	require.Len(t, models, 5)
	assert.Equal(t, "google/gemini-2.0-flash-exp:free", models[0].ID)
}

func TestCatalogFallbackIsNotCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "upstream down", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(modelsPayload))
	}))
	defer srv.Close()

	catalog := NewCatalog("test-key", srv.URL, time.Hour)

	_, advisory := catalog.Models(context.Background())
	assert.NotEmpty(t, advisory)

	// The failed fetch must not poison the cache; the next call retries.
	models, advisory := catalog.Models(context.Background())
	assert.Empty(t, advisory)
	assert.Len(t, models, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestDetectCapabilities(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		modality string
		want     ModelCapabilities
	}{
		{"gpt-4 vision and code", "openai/gpt-4-turbo", "text->text", ModelCapabilities{Vision: true, Fast: true, Code: true}},
		{"claude-3 family", "anthropic/claude-3-opus", "text->text", ModelCapabilities{Vision: true, Code: true}},
		{"free suffix", "qwen/qwen-2:free", "text->text", ModelCapabilities{Free: true}},
		{"multimodal modality", "some/model", "multimodal", ModelCapabilities{Vision: true}},
		{"plain model", "meta/llama-3-70b", "text->text", ModelCapabilities{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectCapabilities(tt.id, tt.id, "", tt.modality))
		})
	}
}
