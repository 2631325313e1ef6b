package postgres

import (
	"context"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/rs/zerolog"
)

const schema = `CREATE TABLE IF NOT EXISTS generation_records (
	seq        BIGSERIAL PRIMARY KEY,
	id         UUID NOT NULL UNIQUE,
	prompt     TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

type Store struct {
	Pool   *pgxpool.Pool
	logger *zerolog.Logger
}

// New connects to databaseURL and creates the records table if needed.
func New(ctx context.Context, databaseURL string, logger *zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to database, Error: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Failed to ping database, Error: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Failed to create generation_records table: %w", err)
	}

	logger.Info().Msg("Postgres store ready")

	return &Store{
		Pool:   pool,
		logger: logger,
	}, nil
}

func (s *Store) Append(ctx context.Context, record models.GenerationRecord) error {
	query := `INSERT INTO generation_records (id, prompt, content, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := s.Pool.Exec(ctx, query, record.ID, record.Prompt, record.Content, record.CreatedAt); err != nil {
		return fmt.Errorf("Failed to insert record id: %s, error: %w", record.ID, err)
	}

	s.logger.Debug().Str("id", record.ID).Msg("Record inserted")
	return nil
}

// ListAll runs a fresh ordered SELECT on every range.
func (s *Store) ListAll(ctx context.Context) iter.Seq2[models.GenerationRecord, error] {
	return func(yield func(models.GenerationRecord, error) bool) {
		query := `SELECT id::text, prompt, content, created_at FROM generation_records ORDER BY seq`

		rows, err := s.Pool.Query(ctx, query)
		if err != nil {
			yield(models.GenerationRecord{}, fmt.Errorf("Unable to fetch records from DB: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var record models.GenerationRecord
			if err := rows.Scan(&record.ID, &record.Prompt, &record.Content, &record.CreatedAt); err != nil {
				yield(models.GenerationRecord{}, fmt.Errorf("Failed to scan record: %w", err))
				return
			}
			record.CreatedAt = record.CreatedAt.UTC()
			if !yield(record, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(models.GenerationRecord{}, fmt.Errorf("Error iterating records: %w", err))
		}
	}
}

func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}
