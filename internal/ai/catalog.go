package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type ModelCapabilities struct {
	Vision bool `json:"vision"`
	Fast   bool `json:"fast"`
	Code   bool `json:"code"`
	Free   bool `json:"free"`
}

type ModelInfo struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	ContextLength int               `json:"context_length"`
	Capabilities  ModelCapabilities `json:"capabilities"`
	Pricing       json.RawMessage   `json:"pricing,omitempty"`
}

// Catalog fetches the provider's model listing, augments each entry with
// keyword-inferred capability flags, and caches the result. When the
// upstream fetch fails it serves a static default list instead.
//
// The listing payload carries name/description/context_length/pricing
// fields the completion SDK does not model, so this is a plain typed GET.
type Catalog struct {
	apiKey     string
	baseURL    string
	ttl        time.Duration
	httpClient *http.Client

	mu        sync.Mutex
	cached    []ModelInfo
	fetchedAt time.Time
}

func NewCatalog(apiKey, baseURL string, ttl time.Duration) *Catalog {
	return &Catalog{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Models returns the available models. The second return value is an
// advisory message set only when the upstream listing failed and the
// static fallback was used.
func (c *Catalog) Models(ctx context.Context) ([]ModelInfo, string) {
	c.mu.Lock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		models := append([]ModelInfo(nil), c.cached...)
		c.mu.Unlock()
		return models, ""
	}
	c.mu.Unlock()

	models, err := c.fetch(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Failed to fetch provider models, using fallback list")
		return defaultModels(), "Failed to fetch latest models from the provider. Using default model list."
	}

	c.mu.Lock()
	c.cached = models
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return append([]ModelInfo(nil), models...), ""
}

func (c *Catalog) fetch(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("models request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8_000_000))
	if err != nil {
		return nil, fmt.Errorf("read models response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("models request failed: status=%d", resp.StatusCode)
	}

	var parsed struct {
		Data []struct {
			ID            string          `json:"id"`
			Name          string          `json:"name"`
			Description   string          `json:"description"`
			ContextLength int             `json:"context_length"`
			Architecture  struct {
				Modality string `json:"modality"`
			} `json:"architecture"`
			Pricing json.RawMessage `json:"pricing"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse models response: %w", err)
	}

	models := make([]ModelInfo, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		if m.ID == "" || m.Name == "" {
			continue
		}
		models = append(models, ModelInfo{
			ID:            m.ID,
			Name:          m.Name,
			Description:   m.Description,
			ContextLength: m.ContextLength,
			Capabilities:  detectCapabilities(m.ID, m.Name, m.Description, m.Architecture.Modality),
			Pricing:       m.Pricing,
		})
	}

	logrus.WithField("count", len(models)).Info("Fetched provider model list")
	return models, nil
}

func detectCapabilities(id, name, description, modality string) ModelCapabilities {
	id = strings.ToLower(id)
	name = strings.ToLower(name)
	description = strings.ToLower(description)
	modality = strings.ToLower(modality)

	caps := ModelCapabilities{}

	if strings.Contains(modality, "vision") || strings.Contains(modality, "image") || strings.Contains(modality, "multimodal") {
		caps.Vision = true
	}
	for _, kw := range []string{"vision", "grok", "gemini", "gpt-4", "claude-3"} {
		if strings.Contains(id, kw) || strings.Contains(name, kw) {
			caps.Vision = true
		}
	}

	for _, kw := range []string{"flash", "turbo", "fast", "instant"} {
		if strings.Contains(id, kw) || strings.Contains(name, kw) {
			caps.Fast = true
		}
	}

	for _, kw := range []string{"code", "deepseek", "claude", "gpt", "gemini"} {
		if strings.Contains(id, kw) || strings.Contains(name, kw) || strings.Contains(description, kw) {
			caps.Code = true
		}
	}

	if strings.Contains(id, ":free") || strings.Contains(name, "free") {
		caps.Free = true
	}

	return caps
}

func defaultModels() []ModelInfo {
	return []ModelInfo{
		{
			ID:            "google/gemini-2.0-flash-exp:free",
			Name:          "Gemini 2.0 Flash",
			Description:   "Fast and efficient model from Google (free tier)",
			ContextLength: 1000000,
			Capabilities:  ModelCapabilities{Vision: true, Fast: true, Code: true, Free: true},
		},
		{
			ID:            "openai/gpt-4-turbo",
			Name:          "GPT-4 Turbo",
			Description:   "OpenAI's most capable model with advanced reasoning",
			ContextLength: 128000,
			Capabilities:  ModelCapabilities{Vision: true, Fast: false, Code: true, Free: false},
		},
		{
			ID:            "anthropic/claude-3.5-sonnet",
			Name:          "Claude 3.5 Sonnet",
			Description:   "Anthropic's most capable model for complex tasks",
			ContextLength: 200000,
			Capabilities:  ModelCapabilities{Vision: true, Fast: false, Code: true, Free: false},
		},
		{
			ID:            "qwen/qwen-turbo",
			Name:          "Qwen Turbo",
			Description:   "Fast and efficient model",
			ContextLength: 8000,
			Capabilities:  ModelCapabilities{Vision: false, Fast: true, Code: true, Free: false},
		},
		{
			ID:            "deepseek/deepseek-chat",
			Name:          "DeepSeek Chat",
			Description:   "DeepSeek chat model",
			ContextLength: 64000,
			Capabilities:  ModelCapabilities{Vision: false, Fast: false, Code: true, Free: false},
		},
	}
}
