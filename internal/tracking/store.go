package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yavin-ai/yavin/internal/db"
)

// Store persists per-section progress and quiz scores.
type Store struct {
	db *db.DB
}

// NewStore creates a progress store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// MarkSection upserts a progress row and reports whether the section was
// already completed before this call. Time spent accumulates.
func (s *Store) MarkSection(ctx context.Context, userID, sectionID string, completed bool, timeSpent int) (bool, error) {
	var was bool
	err := s.db.QueryRowContext(ctx,
		`SELECT completed FROM user_progress WHERE user_id = ? AND section_id = ?`, userID, sectionID,
	).Scan(&was)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("checking progress: %w", err)
	}

	var completedAt any
	if completed {
		completedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, section_id, completed, completed_at, time_spent_seconds)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, section_id) DO UPDATE SET
		     completed = excluded.completed,
		     completed_at = CASE WHEN excluded.completed THEN excluded.completed_at ELSE user_progress.completed_at END,
		     time_spent_seconds = user_progress.time_spent_seconds + excluded.time_spent_seconds`,
		userID, sectionID, completed, completedAt, timeSpent,
	)
	if err != nil {
		return false, fmt.Errorf("saving progress: %w", err)
	}
	return was, nil
}

// RecordQuiz stores a quiz percentage, keeping the best score seen.
func (s *Store) RecordQuiz(ctx context.Context, userID, sectionID string, percentage int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, section_id, quiz_score, quiz_completed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, section_id) DO UPDATE SET
		     quiz_score = MAX(COALESCE(user_progress.quiz_score, excluded.quiz_score), excluded.quiz_score),
		     quiz_completed_at = excluded.quiz_completed_at`,
		userID, sectionID, percentage, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving quiz score: %w", err)
	}
	return nil
}

// CompletedCount returns how many sections the user has completed.
func (s *Store) CompletedCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND completed = 1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting progress: %w", err)
	}
	return n, nil
}
