package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		wantURL string
		wantErr bool
	}{
		{"default base URL", OpenRouterConfig{APIKey: "sk-or", Model: "google/gemini-2.0-flash-exp"}, defaultOpenRouterBaseURL, false},
		{"custom base URL", OpenRouterConfig{APIKey: "sk-or", Model: "m", BaseURL: "http://proxy.local/v1"}, "http://proxy.local/v1", false},
		{"missing key", OpenRouterConfig{Model: "m"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, p.baseURL)
			assert.Equal(t, tt.cfg.Model, p.ModelID(), "model ids pass through")
		})
	}
}

func TestOpenRouterProvider_FromEnv(t *testing.T) {
	var (
		path, auth string
		sent       map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &sent)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"feedback":"Close.","hint":"Reread verse 1."}`, "stop"))
	}))
	t.Cleanup(server.Close)

	cfg := configFrom(env(map[string]string{
		"LECTERN_LLM_PROVIDER":        ProviderOpenRouter,
		"LECTERN_OPENROUTER_API_KEY":  "sk-or-test",
		"LECTERN_OPENROUTER_MODEL":    "anthropic/claude-3-haiku",
		"LECTERN_OPENROUTER_BASE_URL": server.URL + "/v1",
	}))
	require.NoError(t, cfg.Validate())

	p, err := NewOpenRouterProvider(cfg.OpenRouter)
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "The learner answered: shepherd"}},
		Schema:    coachSchema(),
		MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, resp.Usage.InputTokens)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "Bearer sk-or-test", auth)
	assert.Equal(t, "anthropic/claude-3-haiku", sent["model"])
}
