package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/rs/zerolog"
)

const (
	FormatJSONL   = "jsonl"
	FormatSummary = "summary"
)

// Writer emits batch outcomes. In jsonl mode every item is written as it
// arrives; in summary mode only the totals are written on Close.
type Writer struct {
	w      io.Writer
	format string
	enc    *json.Encoder
	totals models.BatchResult
	logger *zerolog.Logger
}

func NewWriter(w io.Writer, format string, logger *zerolog.Logger) (*Writer, error) {
	if format != FormatJSONL && format != FormatSummary {
		return nil, fmt.Errorf("unsupported format %q, supported: %s, %s", format, FormatJSONL, FormatSummary)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return &Writer{
		w:      w,
		format: format,
		enc:    enc,
		logger: logger,
	}, nil
}

func (w *Writer) Write(item models.BatchItem) error {
	switch item.Status {
	case models.BatchStatusCreated:
		w.totals.Created++
	case models.BatchStatusSkipped:
		w.totals.Skipped++
	case models.BatchStatusFailed:
		w.totals.Failed++
	}

	if w.format != FormatJSONL {
		return nil
	}
	if err := w.enc.Encode(item); err != nil {
		return fmt.Errorf("failed to write item: %w", err)
	}
	return nil
}

func (w *Writer) Totals() models.BatchResult {
	return w.totals
}

func (w *Writer) Close() error {
	if w.format != FormatSummary {
		return nil
	}

	_, err := fmt.Fprintf(w.w, "created: %d\nskipped: %d\nfailed: %d\n",
		w.totals.Created, w.totals.Skipped, w.totals.Failed)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	w.logger.Debug().Msg("Summary written")
	return nil
}
