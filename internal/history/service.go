// Package history keeps an optional Postgres log of dictation attempts so a
// learner can review past transcriptions.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Attempt struct {
	ID            int64     `json:"id"`
	Language      string    `json:"language"`
	Transcription string    `json:"transcription"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// EnsureSchema creates the attempts table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS dictation_attempts (
			id            BIGSERIAL PRIMARY KEY,
			language      TEXT NOT NULL,
			transcription TEXT NOT NULL,
			duration_ms   BIGINT NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create dictation_attempts table: %w", err)
	}
	return nil
}

// Record inserts an attempt. A nil service (no database configured) is a
// silent no-op so the core flow never depends on Postgres being up.
func (s *Service) Record(ctx context.Context, a Attempt) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO dictation_attempts (language, transcription, duration_ms)
		 VALUES ($1, $2, $3)`,
		a.Language, a.Transcription, a.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Recent returns the newest attempts, most recent first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, language, transcription, duration_ms, created_at
		 FROM dictation_attempts
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.Language, &a.Transcription, &a.DurationMS, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
