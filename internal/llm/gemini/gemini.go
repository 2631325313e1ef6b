package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm"
	"google.golang.org/genai"
)

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(request.Temperature)),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}

	rsp, err := c.client.Models.GenerateContent(ctx, c.ModelID, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, classifyError(err)
	}

	if rsp.PromptFeedback != nil && rsp.PromptFeedback.BlockReason != "" && rsp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return nil, llm.NewRejectedError(providerName, fmt.Errorf("prompt blocked: %s", rsp.PromptFeedback.BlockReason))
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil {
		return nil, llm.NewRejectedError(providerName, errors.New("no response from Gemini"))
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}

	content := b.String()
	if len(strings.TrimSpace(content)) == 0 {
		return nil, llm.NewRejectedError(providerName, fmt.Errorf("empty text in Gemini response (finish reason %s)", rsp.Candidates[0].FinishReason))
	}

	return &llm.LLMResponse{
		Content:    content,
		StopReason: string(rsp.Candidates[0].FinishReason),
		Model:      c.ModelID,
	}, nil
}

func classifyError(err error) *llm.UpstreamError {
	status := 0
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Code
	}

	return llm.NewUpstreamError(providerName, status, err)
}
