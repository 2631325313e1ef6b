package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/rs/zerolog"
)

const maxLineSize = 1024 * 1024

// InputRecord is one non-blank input line. Error is set when the line could
// not be turned into a prompt.
type InputRecord struct {
	LineNumber int
	Prompt     string
	Error      error
}

// Reader reads prompts one per line. A line starting with '{' is decoded as
// a GenerationRequest, anything else is taken verbatim.
type Reader struct {
	r      io.Reader
	logger *zerolog.Logger
}

func NewReader(r io.Reader, logger *zerolog.Logger) *Reader {
	return &Reader{
		r:      r,
		logger: logger,
	}
}

// ReadAll streams records on the returned channel, which is closed when the
// input is exhausted or ctx is done.
func (r *Reader) ReadAll(ctx context.Context) <-chan InputRecord {
	out := make(chan InputRecord)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r.r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		lineNumber := 0
		for scanner.Scan() {
			lineNumber++
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}

			record := parseLine(lineNumber, line)
			if record.Error != nil {
				r.logger.Warn().Err(record.Error).Int("line", lineNumber).Msg("Skipping invalid input line")
			}

			select {
			case out <- record:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case out <- InputRecord{LineNumber: lineNumber + 1, Error: fmt.Errorf("failed to read input: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

func parseLine(lineNumber int, line string) InputRecord {
	record := InputRecord{LineNumber: lineNumber}

	if !strings.HasPrefix(strings.TrimSpace(line), "{") {
		record.Prompt = line
		return record
	}

	var req models.GenerationRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		record.Error = fmt.Errorf("line %d: invalid JSON: %w", lineNumber, err)
		return record
	}
	if strings.TrimSpace(req.Prompt) == "" {
		record.Error = fmt.Errorf("line %d: prompt must not be empty", lineNumber)
		return record
	}

	record.Prompt = req.Prompt
	return record
}
