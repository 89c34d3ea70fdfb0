package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/layouts"
)

// Provider names accepted in PPTX_LLM_PROVIDER.
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// FromEnv builds the guarded classifier selected by env. A misconfigured
// or unknown provider falls back to Mock with a warning. ProviderNone
// returns nil, which disables AI scoring.
func FromEnv(ctx context.Context, env config.Env, vocab *layouts.Vocabulary, log *zap.Logger) Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	guard := func(c Classifier) Classifier {
		return &Guard{Classifier: c, Timeout: env.LLMTimeout, Vocabulary: vocab}
	}

	switch env.LLMProvider {
	case ProviderNone:
		return nil
	case ProviderMock, "":
		return guard(Mock{})
	case ProviderOpenAI:
		c, err := NewOpenAI(OpenAIConfig{
			APIKey:  env.OpenAIAPIKey,
			BaseURL: env.OpenAIBaseURL,
			Model:   env.OpenAIModel,
			Timeout: env.LLMTimeout,
		})
		if err != nil {
			log.Warn("llm provider misconfigured, using mock", zap.String("provider", env.LLMProvider), zap.Error(err))
			return guard(Mock{})
		}
		return guard(c)
	case ProviderGemini:
		c, err := NewGemini(ctx, GeminiConfig{APIKey: env.GeminiAPIKey, Model: env.GeminiModel})
		if err != nil {
			log.Warn("llm provider misconfigured, using mock", zap.String("provider", env.LLMProvider), zap.Error(err))
			return guard(Mock{})
		}
		return guard(c)
	default:
		log.Warn("unknown llm provider, using mock", zap.String("provider", env.LLMProvider))
		return guard(Mock{})
	}
}
