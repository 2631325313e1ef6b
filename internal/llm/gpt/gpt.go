package gpt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm"
)

const providerName = "openai"

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	message := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(request.Prompt),
		},
		MaxCompletionTokens: openai.Int(int64(request.MaxTokens)),
		Temperature:         openai.Float(request.Temperature),
		Model:               openai.ChatModel(c.ModelID),
	}

	output, err := c.Client.Chat.Completions.New(ctx, message)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(output.Choices) == 0 {
		return nil, llm.NewRejectedError(providerName, errors.New("no choices in response"))
	}

	response := output.Choices[0]
	if len(strings.TrimSpace(response.Message.Content)) == 0 {
		return nil, llm.NewRejectedError(providerName, errors.New("no response from OpenAI"))
	}

	return &llm.LLMResponse{
		Content:    response.Message.Content,
		StopReason: fmt.Sprint(response.FinishReason),
		Model:      c.ModelID,
	}, nil
}

func classifyError(err error) *llm.UpstreamError {
	status := 0
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return llm.NewUpstreamError(providerName, status, err)
}
