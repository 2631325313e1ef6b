package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm"
)

const providerName = "bedrock"

type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

var anthropicVersion = "bedrock-2023-05-31"

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	payload := claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        request.MaxTokens,
		Temperature:      request.Temperature,
		Messages: []claudeMessage{
			{
				Role:    "user",
				Content: request.Prompt,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("Unable to serialize claude request. Error: %w", err)
	}

	output, err := c.Client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.ModelID,
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, classifyError(err)
	}

	return decodeResponse(output.Body, c.ModelID)
}

func decodeResponse(body []byte, modelID string) (*llm.LLMResponse, error) {
	var response claudeMessageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, llm.NewRejectedError(providerName, fmt.Errorf("Failed to unmarshal bedrock response. Error: %w", err))
	}

	var b strings.Builder
	for _, block := range response.Content {
		if block.Type == "" || block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	content := b.String()
	if len(strings.TrimSpace(content)) == 0 {
		return nil, llm.NewRejectedError(providerName, errors.New("no response from Claude"))
	}

	return &llm.LLMResponse{
		Content:    content,
		StopReason: response.StopReason,
		Model:      modelID,
	}, nil
}

// Smithy response errors expose the HTTP status of the failed call.
type httpStatusError interface {
	HTTPStatusCode() int
}

func classifyError(err error) *llm.UpstreamError {
	status := 0
	var respErr httpStatusError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}
	return llm.NewUpstreamError(providerName, status, err)
}
