package setup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/config"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/events"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/generation"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm/claude"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm/gemini"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm/gpt"
	red "github.com/povarna/generative-ai-agents/blog-agent/internal/redis"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/store"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/store/file"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/store/postgres"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/store/sqlite"
	"github.com/rs/zerolog"
)

const redisConnectRetries = 3

type Dependencies struct {
	Service   *generation.Service
	Store     store.Store
	Publisher events.Publisher
	Logger    *zerolog.Logger

	closers []io.Closer
}

// Close releases every client opened by Wire, in reverse order.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func Wire(ctx context.Context, cfg *config.Config, promptCfg *config.PromptConfig, logger *zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	llmClient, err := createLLMClient(ctx, cfg, promptCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}
	if closer, ok := llmClient.(io.Closer); ok {
		deps.closers = append(deps.closers, closer)
	}

	st, err := createStore(ctx, cfg, logger)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create %s store: %w", cfg.StoreBackend, err)
	}
	deps.Store = st
	deps.closers = append(deps.closers, st)

	publisher, err := createPublisher(ctx, cfg, logger)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	deps.Publisher = publisher
	deps.closers = append(deps.closers, publisher)

	svc, err := generation.NewService(llmClient, st, publisher, promptCfg, generation.Options{
		Timeout:         cfg.UpstreamTimeout,
		MaxPromptLength: cfg.MaxPromptLength,
	}, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Service = svc

	logger.Info().
		Str("provider", string(cfg.LLMProvider)).
		Str("store", string(cfg.StoreBackend)).
		Bool("events", cfg.RedisAddr != "").
		Dur("upstream_timeout", cfg.UpstreamTimeout).
		Msg("Dependencies wired")

	return deps, nil
}

func createLLMClient(ctx context.Context, cfg *config.Config, promptCfg *config.PromptConfig, logger *zerolog.Logger) (llm.LLMClient, error) {
	switch cfg.LLMProvider {
	case config.ProviderBedrock:
		return bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	case config.ProviderOpenAI:
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID)
	case config.ProviderAnthropic:
		return claude.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			PreferredModels: promptCfg.Gemini.PreferredModels,
			FallbackModels:  promptCfg.Gemini.FallbackModels,
		}, logger)
	}
}

func createStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return postgres.New(ctx, cfg.DatabaseURL, logger)
	case config.BackendSQLite:
		return sqlite.New(cfg.SQLitePath, logger)
	default:
		return file.New(cfg.DataFile, logger)
	}
}

func createPublisher(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (events.Publisher, error) {
	if cfg.RedisAddr == "" {
		return events.NopPublisher{}, nil
	}

	client, err := red.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, redisConnectRetries, logger)
	if err != nil {
		return nil, err
	}

	return events.NewRedisPublisher(client, cfg.EventsStream, logger), nil
}
