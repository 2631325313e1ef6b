package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/rs/zerolog"
)

const lockRetryDelay = 50 * time.Millisecond

// Store keeps all records in one JSON array document.
//
// Writers are serialized by an in-process mutex and an advisory lock on
// path+".lock", so several processes can share the same data file. Every
// write replaces the document through a rename, so readers never lock.
type Store struct {
	path   string
	mu     sync.Mutex
	lock   *flock.Flock
	logger *zerolog.Logger
}

// New opens the store at path, creating the directory and an empty array
// document when the file does not exist yet. An existing file that is not a
// JSON array is an error: it is never overwritten.
func New(path string, logger *zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("data file path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	s := &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		created, err := s.createIfMissing()
		if err != nil {
			return nil, err
		}
		if created {
			logger.Info().Str("path", path).Msg("Created data file")
			return s, nil
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat data file: %w", err)
	}

	if _, err := s.readAll(); err != nil {
		return nil, err
	}

	return s, nil
}

// createIfMissing writes the empty document under the file lock. Another
// process may have created the file since the first check, in which case
// it is left alone.
func (s *Store) createIfMissing() (bool, error) {
	if err := s.lock.Lock(); err != nil {
		return false, fmt.Errorf("failed to lock data file: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to release data file lock")
		}
	}()

	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat data file: %w", err)
	}

	if err := s.write(nil); err != nil {
		return false, fmt.Errorf("failed to initialise data file: %w", err)
	}
	return true, nil
}

// Append reads the current array, adds record and atomically replaces the
// document. The previous document stays in place if any step fails.
func (s *Store) Append(ctx context.Context, record models.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock data file: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock data file %s", s.path)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to release data file lock")
		}
	}()

	records, err := s.readAll()
	if err != nil {
		return err
	}

	records = append(records, record)
	if err := s.write(records); err != nil {
		return err
	}

	s.logger.Debug().
		Str("id", record.ID).
		Int("total", len(records)).
		Msg("Record appended")

	return nil
}

// ListAll returns a sequence that opens and decodes the document each time
// it is ranged over. Records are decoded one at a time.
func (s *Store) ListAll(ctx context.Context) iter.Seq2[models.GenerationRecord, error] {
	return func(yield func(models.GenerationRecord, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(models.GenerationRecord{}, fmt.Errorf("failed to open data file: %w", err))
			return
		}
		defer f.Close()

		dec := json.NewDecoder(f)
		if err := expectArrayStart(dec); err != nil {
			yield(models.GenerationRecord{}, fmt.Errorf("invalid data file %s: %w", s.path, err))
			return
		}

		for dec.More() {
			if err := ctx.Err(); err != nil {
				yield(models.GenerationRecord{}, err)
				return
			}

			var record models.GenerationRecord
			if err := dec.Decode(&record); err != nil {
				yield(models.GenerationRecord{}, fmt.Errorf("invalid record in %s: %w", s.path, err))
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) readAll() ([]models.GenerationRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var records []models.GenerationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("invalid data file %s: %w", s.path, err)
	}
	if records == nil && !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return nil, fmt.Errorf("invalid data file %s: expected a JSON array", s.path)
	}

	return records, nil
}

func (s *Store) write(records []models.GenerationRecord) error {
	if records == nil {
		records = []models.GenerationRecord{}
	}

	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer pending.Cleanup()

	enc := json.NewEncoder(pending)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	return nil
}

func expectArrayStart(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty document")
		}
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected a JSON array, got %v", tok)
	}
	return nil
}
