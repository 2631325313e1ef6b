package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm"
)

const providerName = "anthropic"

// Client talks to the Anthropic Messages API directly, without Bedrock.
type Client struct {
	client  *anthropic.Client
	ModelID string
}

func NewClient(apiKey string, model string, opts ...anthropicopt.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("Anthropic model ID is required")
	}

	client := anthropic.NewClient(append([]anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(apiKey),
		anthropicopt.WithMaxRetries(0),
	}, opts...)...)

	return &Client{
		client:  &client,
		ModelID: model,
	}, nil
}

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	maxTokens := int64(request.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.ModelID),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(request.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}

	rsp, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return nil, classifyError(err)
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	result := b.String()
	if len(strings.TrimSpace(result)) == 0 {
		return nil, llm.NewRejectedError(providerName, errors.New("no response from Anthropic"))
	}

	return &llm.LLMResponse{
		Content:    result,
		StopReason: string(rsp.StopReason),
		Model:      c.ModelID,
	}, nil
}

func classifyError(err error) *llm.UpstreamError {
	status := 0
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return llm.NewUpstreamError(providerName, status, err)
}
