package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/cheercheung/chatrecap-sub001/internal/anthropic"
	"github.com/cheercheung/chatrecap-sub001/internal/config"
	"github.com/cheercheung/chatrecap-sub001/internal/gemini"
	"github.com/cheercheung/chatrecap-sub001/internal/insight"
	"github.com/cheercheung/chatrecap-sub001/internal/logger"
	"github.com/cheercheung/chatrecap-sub001/internal/processor"
	"github.com/cheercheung/chatrecap-sub001/internal/stats"
)

// newGenerator returns the configured model client, or nil when no key is
// set; the AI phase then reports itself unavailable.
func newGenerator(ctx context.Context, cfg config.Config, log zerolog.Logger) (processor.TextGenerator, error) {
	if cfg.AIKey() == "" {
		log.Warn().Str("provider", cfg.AIProvider).Msg("no AI key configured, AI analysis disabled")
		return nil, nil
	}
	switch cfg.AIProvider {
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			MaxOutputTokens: int32(cfg.AIMaxTokens),
		}, logger.Named(log, "gemini"))
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		log.Info().Str("model", cfg.GeminiModel).Msg("gemini client ready")
		return c, nil
	default:
		log.Info().Str("model", cfg.AnthropicModel).Msg("anthropic client ready")
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AIMaxTokens, logger.Named(log, "anthropic")), nil
	}
}

func newPrompts(cfg config.Config, log zerolog.Logger) *insight.Builder {
	return insight.NewBuilder(afero.NewOsFs(), cfg.PromptDir, cfg.DefaultLocale, logger.Named(log, "prompts"))
}

func processorOptions(cfg config.Config) processor.Options {
	return processor.Options{
		CreditCost:    cfg.AICreditCost,
		JobTimeout:    cfg.JobTimeout,
		MaxConcurrent: cfg.MaxConcurrentJobs,
		DefaultLocale: cfg.DefaultLocale,
		TextOptions:   stats.DefaultTextOptions(),
	}
}
