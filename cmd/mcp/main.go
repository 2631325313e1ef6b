package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/config"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/mcpadapter"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/setup"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/setup/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging. stdout carries the MCP protocol, so logs go to stderr.
	log.Logger = logger.NewConsole("info")

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	log.Logger = logger.NewConsole(cfg.LogLevel)
	appLogger := log.Logger

	promptCfg, err := config.LoadPromptConfig(cfg.PromptsConfigPath)
	if err != nil {
		appLogger.Error().Err(err).Msg("Invalid prompt configuration")
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wire dependencies
	deps, err := setup.Wire(ctx, cfg, promptCfg, &appLogger)
	if err != nil {
		appLogger.Error().Err(err).Msg("Unable to load dependencies")
		os.Exit(1)
	}
	defer deps.Close()

	server := mcpadapter.NewServer(deps.Service, "1.0.0")

	// Run over stdio
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		// EOF / "server is closing" is expected when stdin closes
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
			appLogger.Debug().Err(err).Msg("MCP server stopped")
			return
		}
		appLogger.Error().Err(err).Msg("Failed to run mcp server")
		deps.Close()
		os.Exit(1)
	}
}
