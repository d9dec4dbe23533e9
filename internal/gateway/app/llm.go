package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"blockvibe/internal/gateway/config"
	"blockvibe/internal/llm"
)

// newChatClient builds the configured provider. A missing credential yields
// a client that reports llm.ErrConfiguration on every call.
func newChatClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (llm.ChatClient, error) {
	var inner llm.ChatClient
	switch cfg.Provider {
	case config.ProviderFake:
		inner = llm.NewFakeClient()
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			inner = llm.Unconfigured("gemini")
			break
		}
		g, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		inner = g
	default:
		inner = llm.NewRouterClient(llm.RouterConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.RouterToken,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	}
	if cfg.Provider == config.ProviderRouter && cfg.RouterToken == "" {
		logger.Warn("HF_TOKEN is not set; synthesis will use fallback definitions")
	}

	mws := []llm.Middleware{llm.WithLogging(logger)}
	if cfg.RPS > 0 {
		mws = append(mws, llm.RateLimit(cfg.RPS, cfg.Burst))
	}
	mws = append(mws, llm.Retry(cfg.MaxAttempts, 0), llm.WithTimeout(cfg.Timeout))
	return llm.Wrap(inner, mws...), nil
}
