package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/generation"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
)

// GenerateInput is the MCP tool input schema (matches HTTP API field names).
type GenerateInput struct {
	Prompt string `json:"prompt" jsonschema:"topic or prompt for the blog post"`
}

type ListInput struct{}

// NewServer registers the blog tools against svc.
func NewServer(svc *generation.Service, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "blog-agent",
			Version: version,
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_blog_post",
		Description: "Generate a blog post about a topic and store it. Returns the stored record.",
	}, NewGenerateHandler(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_blog_posts",
		Description: "List every stored blog post in the order it was generated",
	}, NewListHandler(svc))

	return server
}

// NewGenerateHandler returns a tool handler that uses the given service.
// Pass the returned function to mcp.AddTool.
func NewGenerateHandler(svc *generation.Service) func(context.Context, *mcp.CallToolRequest, GenerateInput) (*mcp.CallToolResult, models.GenerationRecord, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, models.GenerationRecord, error) {
		record, err := svc.Generate(ctx, input.Prompt)
		return nil, record, err
	}
}

func NewListHandler(svc *generation.Service) func(context.Context, *mcp.CallToolRequest, ListInput) (*mcp.CallToolResult, models.RecordList, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, models.RecordList, error) {
		records, err := svc.List(ctx)
		if err != nil {
			return nil, models.RecordList{}, err
		}
		return nil, models.RecordList{Records: records, Count: len(records)}, nil
	}
}
