package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/config"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/events"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/store"
	"github.com/rs/zerolog"
)

type Options struct {
	Timeout         time.Duration
	MaxPromptLength int
}

// Service turns a prompt into a stored GenerationRecord. Each prompt gets
// exactly one upstream attempt.
type Service struct {
	client    llm.LLMClient
	store     store.Store
	publisher events.Publisher
	template  *template.Template
	model     config.ModelConfig
	opts      Options
	logger    *zerolog.Logger
}

type templateData struct {
	Topic string
}

func NewService(
	client llm.LLMClient,
	st store.Store,
	publisher events.Publisher,
	promptCfg *config.PromptConfig,
	opts Options,
	logger *zerolog.Logger,
) (*Service, error) {
	if promptCfg == nil {
		promptCfg = config.DefaultPromptConfig()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxPromptLength <= 0 {
		opts.MaxPromptLength = 2000
	}

	tmpl, err := template.New("blog").Parse(promptCfg.Generation.Template)
	if err != nil {
		return nil, fmt.Errorf("invalid generation template: %w", err)
	}

	return &Service{
		client:    client,
		store:     st,
		publisher: publisher,
		template:  tmpl,
		model:     promptCfg.Generation.Model,
		opts:      opts,
		logger:    logger,
	}, nil
}

func (s *Service) Validate(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if n := utf8.RuneCountInString(prompt); n > s.opts.MaxPromptLength {
		return fmt.Errorf("%w: %d characters, maximum is %d", ErrPromptTooLong, n, s.opts.MaxPromptLength)
	}
	return nil
}

// Generate validates prompt, calls the upstream once and appends the result.
// The returned record carries prompt exactly as given.
func (s *Service) Generate(ctx context.Context, prompt string) (models.GenerationRecord, error) {
	if err := s.Validate(prompt); err != nil {
		return models.GenerationRecord{}, err
	}

	rendered, err := s.render(prompt)
	if err != nil {
		return models.GenerationRecord{}, err
	}

	start := time.Now()
	resp, err := s.invoke(ctx, rendered)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Upstream generation failed")
		return models.GenerationRecord{}, err
	}

	record := models.GenerationRecord{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Content:   resp.Content,
		CreatedAt: time.Now().UTC(),
	}

	// Persistence outlives the caller's connection.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.store.Append(persistCtx, record); err != nil {
		s.logger.Error().Err(err).Str("id", record.ID).Msg("Failed to store generated record")
		return record, &StorageError{Record: record, Err: err}
	}

	if err := s.publisher.Publish(persistCtx, record); err != nil {
		s.logger.Warn().Err(err).Str("id", record.ID).Msg("Failed to publish generation event")
	}

	s.logger.Info().
		Str("id", record.ID).
		Str("model", resp.Model).
		Int("content_length", len(record.Content)).
		Dur("duration", time.Since(start)).
		Msg("Generation complete")

	return record, nil
}

func (s *Service) invoke(ctx context.Context, prompt string) (*llm.LLMResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	resp, err := s.client.InvokeModel(callCtx, llm.LLMRequest{
		Prompt:      prompt,
		MaxTokens:   s.model.MaxTokens,
		Temperature: s.model.TemperatureValue(),
	})

	timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil

	if err != nil {
		ue, ok := llm.AsUpstreamError(err)
		if !ok {
			ue = llm.NewUpstreamError("upstream", 0, err)
		}
		if timedOut {
			ue.Kind = llm.KindUnavailable
			ue.Timeout = true
		}
		return nil, ue
	}

	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, llm.NewRejectedError("upstream", errors.New("empty response"))
	}

	return resp, nil
}

func (s *Service) render(prompt string) (string, error) {
	var buf bytes.Buffer
	if err := s.template.Execute(&buf, templateData{Topic: strings.TrimSpace(prompt)}); err != nil {
		return "", fmt.Errorf("failed to render generation template: %w", err)
	}
	return buf.String(), nil
}

// List returns every stored record in insertion order.
func (s *Service) List(ctx context.Context) ([]models.GenerationRecord, error) {
	return store.Collect(s.store.ListAll(ctx))
}
