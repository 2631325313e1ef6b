package generation

import (
	"errors"
	"fmt"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
)

var (
	ErrEmptyPrompt   = errors.New("prompt must not be empty")
	ErrPromptTooLong = errors.New("prompt is too long")
	ErrNoPrompts     = errors.New("no prompts provided")
)

// IsValidationError reports whether err was caused by caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyPrompt) ||
		errors.Is(err, ErrPromptTooLong) ||
		errors.Is(err, ErrNoPrompts)
}

// StorageError means the upstream produced content but it could not be
// persisted. Record holds the generated content so callers can still use it.
type StorageError struct {
	Record models.GenerationRecord
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to store record %s: %v", e.Record.ID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
