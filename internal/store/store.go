package store

import (
	"context"
	"iter"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
)

// Store persists generation records in insertion order.
//
// Append either makes the record durable or leaves previously stored
// records untouched. ListAll yields records lazily and may be ranged over
// any number of times; each range sees the records committed when it starts
// reading.
type Store interface {
	Append(ctx context.Context, record models.GenerationRecord) error
	ListAll(ctx context.Context) iter.Seq2[models.GenerationRecord, error]
	Close() error
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[models.GenerationRecord, error]) ([]models.GenerationRecord, error) {
	records := []models.GenerationRecord{}
	for record, err := range seq {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
