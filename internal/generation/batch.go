package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
)

// ParsePrompts merges the explicit prompt list and the line-based text into
// one list, dropping blank entries.
func ParsePrompts(req models.BatchRequest) []string {
	var prompts []string
	for _, p := range req.Prompts {
		if strings.TrimSpace(p) != "" {
			prompts = append(prompts, p)
		}
	}
	for line := range strings.Lines(req.Text) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			prompts = append(prompts, line)
		}
	}
	return prompts
}

func promptKey(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

// GenerateBatch processes prompts one after another. Prompts already stored,
// or repeated within the batch, are skipped. A failing prompt does not stop
// the rest of the batch.
func (s *Service) GenerateBatch(ctx context.Context, prompts []string) (models.BatchResult, error) {
	if len(prompts) == 0 {
		return models.BatchResult{}, ErrNoPrompts
	}

	seen := make(map[string]bool)
	for record, err := range s.store.ListAll(ctx) {
		if err != nil {
			return models.BatchResult{}, fmt.Errorf("failed to load stored prompts: %w", err)
		}
		seen[promptKey(record.Prompt)] = true
	}

	result := models.BatchResult{Items: make([]models.BatchItem, 0, len(prompts))}

	for i, prompt := range prompts {
		item := models.BatchItem{Prompt: prompt}
		key := promptKey(prompt)

		switch {
		case ctx.Err() != nil:
			item.Status = models.BatchStatusFailed
			item.Error = fmt.Sprintf("not attempted: %v", ctx.Err())
		case seen[key]:
			item.Status = models.BatchStatusSkipped
			item.Error = "duplicate prompt"
		default:
			seen[key] = true
			record, err := s.Generate(ctx, prompt)
			if err != nil {
				item.Status = models.BatchStatusFailed
				item.Error = err.Error()
				if se, ok := AsStorageError(err); ok {
					item.Record = &se.Record
				}
			} else {
				item.Status = models.BatchStatusCreated
				item.Record = &record
			}
		}

		s.logger.Info().
			Int("index", i).
			Str("status", string(item.Status)).
			Msg("Batch prompt processed")

		result.Items = append(result.Items, item)
		switch item.Status {
		case models.BatchStatusCreated:
			result.Created++
		case models.BatchStatusSkipped:
			result.Skipped++
		case models.BatchStatusFailed:
			result.Failed++
		}
	}

	return result, nil
}
