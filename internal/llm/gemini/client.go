package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const providerName = "gemini"

type Client struct {
	client  *genai.Client
	ModelID string
	logger  *zerolog.Logger
}

type Options struct {
	APIKey string
	// Model pins the model and skips discovery when set.
	Model           string
	PreferredModels []string
	FallbackModels  []string
	// DiscoveryTimeout bounds the model listing made at startup.
	DiscoveryTimeout time.Duration
	// BaseURL overrides the Gemini API endpoint.
	BaseURL string
}

// NewClient builds a Gemini API client. The genai client sends every
// request once; there is no retry layer underneath.
func NewClient(ctx context.Context, opts Options, logger *zerolog.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: opts.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Unable to create Gemini client: %w", err)
	}

	c := &Client{
		client:  genaiClient,
		ModelID: opts.Model,
		logger:  logger,
	}

	if c.ModelID == "" {
		c.ModelID = c.discoverModel(ctx, opts)
	}

	logger.Info().Str("model", c.ModelID).Msg("Gemini model selected")

	return c, nil
}

// discoverModel lists the models available to the key and picks one. Listing
// failures are not fatal; the first fallback model is used instead.
func (c *Client) discoverModel(ctx context.Context, opts Options) string {
	timeout := opts.DiscoveryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var available []ModelInfo
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			c.logger.Warn().Err(err).Msg("Error listing Gemini models")
			available = nil
			break
		}
		available = append(available, ModelInfo{
			Name:                       m.Name,
			SupportedGenerationMethods: m.SupportedActions,
		})
	}

	return SelectModel(available, opts.PreferredModels, opts.FallbackModels)
}
