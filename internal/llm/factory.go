package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/lectern/internal/platform/logger"
	"github.com/abhisek/lectern/internal/store"
)

// NewProvider builds the configured provider wrapped as
// caller -> retry -> journal logging -> provider. repo may be nil.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, repo, log)
	return WithRetry(logged, cfg.Retry, log), nil
}

// NewProviderFromEnv uses LECTERN_LLM_PROVIDER when set and otherwise
// discovers a provider from the standard API key variables. It returns
// ErrNotConfigured when neither yields a provider.
func NewProviderFromEnv(ctx context.Context, repo store.EventRepo, log *logger.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if cfg.Validate() != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, ErrNotConfigured
		}
		cfg = discovered
	}
	return NewProvider(ctx, cfg, repo, log)
}
