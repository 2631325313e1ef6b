package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/batch"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/config"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/setup"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/setup/logger"
	"github.com/rs/zerolog/log"
)

type cli struct {
	Input  string `help:"Input file, one prompt per line ('-' for stdin)." required:"" short:"i"`
	Output string `help:"Output file (default stdout)." short:"o"`
	Format string `help:"Output format." enum:"jsonl,summary" default:"jsonl"`
	DryRun bool   `help:"Validate input without generating."`
}

func main() {
	startTime := time.Now()

	log.Logger = logger.NewConsole("info")

	var args cli
	kong.Parse(&args,
		kong.Name("blog-batch"),
		kong.Description("Generate one blog post per input line, skipping prompts that were already generated."),
	)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Logger = logger.NewConsole(cfg.LogLevel)

	promptCfg, err := config.LoadPromptConfig(cfg.PromptsConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid prompt configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open input file
	var inputFile io.Reader
	if args.Input == "-" {
		inputFile = os.Stdin
		log.Info().Msg("Reading from stdin")
	} else {
		f, err := os.Open(args.Input)
		if err != nil {
			log.Fatal().Err(err).Str("file", args.Input).Msg("Failed to open input file")
		}
		defer f.Close()
		inputFile = f
		log.Info().Str("file", args.Input).Msg("Reading input file")
	}

	// Read records
	appLogger := log.Logger
	reader := batch.NewReader(inputFile, &appLogger)

	var prompts []string
	errorCount := 0
	for record := range reader.ReadAll(ctx) {
		if record.Error != nil {
			log.Error().Int("line", record.LineNumber).Err(record.Error).Msg("Validation error")
			errorCount++
			continue
		}
		prompts = append(prompts, record.Prompt)
	}

	log.Info().Int("prompts", len(prompts)).Int("errors", errorCount).Msg("Input file parsed")

	if args.DryRun {
		if errorCount > 0 {
			log.Fatal().Int("errors", errorCount).Msg("Validation failed")
		}
		log.Info().Msg("Validation successful")
		return
	}

	// Open output file
	var outputFile io.Writer
	if args.Output == "" {
		outputFile = os.Stdout
	} else {
		f, err := os.Create(args.Output)
		if err != nil {
			log.Fatal().Err(err).Str("file", args.Output).Msg("Failed to create output file")
		}
		defer f.Close()
		outputFile = f
		log.Info().Str("file", args.Output).Msg("Writing to output file")
	}

	writer, err := batch.NewWriter(outputFile, args.Format, &appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create writer")
	}

	deps, err := setup.Wire(ctx, cfg, promptCfg, &appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer deps.Close()

	result, err := deps.Service.GenerateBatch(ctx, prompts)
	if err != nil {
		log.Error().Err(err).Msg("Batch generation failed")
		deps.Close()
		os.Exit(1)
	}

	for _, item := range result.Items {
		if err := writer.Write(item); err != nil {
			log.Error().Err(err).Str("prompt", item.Prompt).Msg("Failed to write result")
		}
	}
	if err := writer.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to finish output")
	}

	log.Info().
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("duration", time.Since(startTime)).
		Msg("Batch processing complete")
}
