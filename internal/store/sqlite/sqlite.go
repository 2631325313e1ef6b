package sqlite

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordRow struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	RecordID  string    `gorm:"column:record_id;uniqueIndex;not null"`
	Prompt    string    `gorm:"not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (recordRow) TableName() string {
	return "generation_records"
}

type Store struct {
	db     *gorm.DB
	logger *zerolog.Logger
}

// New opens the SQLite database at path and migrates the records table.
func New(path string, log *zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)

	gormLogger := logger.New(
		zerologWriter{log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection serializes writers and avoids "database is locked".
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&recordRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{db: db, logger: log}, nil
}

func (s *Store) Append(ctx context.Context, record models.GenerationRecord) error {
	row := recordRow{
		RecordID:  record.ID,
		Prompt:    record.Prompt,
		Content:   record.Content,
		CreatedAt: record.CreatedAt,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert record %s: %w", record.ID, err)
	}

	s.logger.Debug().Str("id", record.ID).Uint64("seq", row.Seq).Msg("Record inserted")
	return nil
}

func (s *Store) ListAll(ctx context.Context) iter.Seq2[models.GenerationRecord, error] {
	return func(yield func(models.GenerationRecord, error) bool) {
		rows, err := s.db.WithContext(ctx).Model(&recordRow{}).Order("seq").Rows()
		if err != nil {
			yield(models.GenerationRecord{}, fmt.Errorf("query records: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row recordRow
			if err := s.db.ScanRows(rows, &row); err != nil {
				yield(models.GenerationRecord{}, fmt.Errorf("scan record: %w", err))
				return
			}
			record := models.GenerationRecord{
				ID:        row.RecordID,
				Prompt:    row.Prompt,
				Content:   row.Content,
				CreatedAt: row.CreatedAt.UTC(),
			}
			if !yield(record, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(models.GenerationRecord{}, fmt.Errorf("iterate records: %w", err))
		}
	}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// zerologWriter satisfies gorm's logger.Writer.
type zerologWriter struct {
	logger *zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...any) {
	w.logger.Warn().Str("component", "gorm").Msgf(format, args...)
}
