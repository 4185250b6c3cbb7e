package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures a provider.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one request including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig controls backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the built-in defaults. Coaching replies are short,
// so the cheapest model of each provider is selected.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// envBindings maps LECTERN_* variables onto config fields.
func envBindings(cfg *Config) map[string]*string {
	return map[string]*string{
		"LECTERN_LLM_PROVIDER":        &cfg.Provider,
		"LECTERN_ANTHROPIC_API_KEY":   &cfg.Anthropic.APIKey,
		"LECTERN_ANTHROPIC_MODEL":     &cfg.Anthropic.Model,
		"LECTERN_OPENAI_API_KEY":      &cfg.OpenAI.APIKey,
		"LECTERN_OPENAI_MODEL":        &cfg.OpenAI.Model,
		"LECTERN_OPENAI_BASE_URL":     &cfg.OpenAI.BaseURL,
		"LECTERN_GEMINI_API_KEY":      &cfg.Gemini.APIKey,
		"LECTERN_GEMINI_MODEL":        &cfg.Gemini.Model,
		"LECTERN_OPENROUTER_API_KEY":  &cfg.OpenRouter.APIKey,
		"LECTERN_OPENROUTER_MODEL":    &cfg.OpenRouter.Model,
		"LECTERN_OPENROUTER_BASE_URL": &cfg.OpenRouter.BaseURL,
	}
}

// ConfigFromEnv overlays LECTERN_* variables on the defaults.
func ConfigFromEnv() Config {
	return configFrom(os.Getenv)
}

func configFrom(getenv func(string) string) Config {
	cfg := DefaultConfig()
	for name, field := range envBindings(&cfg) {
		if v := getenv(name); v != "" {
			*field = v
		}
	}
	return cfg
}

// discoveryOrder lists the standard key variables probed by DiscoverConfig.
var discoveryOrder = []struct {
	env      string
	provider string
}{
	{"GEMINI_API_KEY", ProviderGemini},
	{"OPENAI_API_KEY", ProviderOpenAI},
	{"ANTHROPIC_API_KEY", ProviderAnthropic},
	{"OPENROUTER_API_KEY", ProviderOpenRouter},
}

// DiscoverConfig picks the first provider whose standard API key variable
// is set. It reports false when none is.
func DiscoverConfig() (Config, bool) {
	return discoverFrom(os.Getenv)
}

func discoverFrom(getenv func(string) string) (Config, bool) {
	cfg := DefaultConfig()
	for _, d := range discoveryOrder {
		k := getenv(d.env)
		if k == "" {
			continue
		}
		cfg.Provider = d.provider
		switch d.provider {
		case ProviderGemini:
			cfg.Gemini.APIKey = k
		case ProviderOpenAI:
			cfg.OpenAI.APIKey = k
		case ProviderAnthropic:
			cfg.Anthropic.APIKey = k
		case ProviderOpenRouter:
			cfg.OpenRouter.APIKey = k
		}
		return cfg, true
	}
	return Config{}, false
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("LECTERN_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
