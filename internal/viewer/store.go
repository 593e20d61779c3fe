package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yavin-ai/yavin/internal/db"
	"github.com/yavin-ai/yavin/internal/sim"
)

// Store persists finished demo runs.
type Store struct {
	db *db.DB
}

// NewStore creates a new run store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts a finished run.
func (s *Store) Record(ctx context.Context, run Run) (*Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO demo_runs (id, instance_id, kind, steps, final_value, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InstanceID, string(run.Kind), run.Steps, run.FinalValue, run.Status, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting demo run: %w", err)
	}
	return &run, nil
}

// Recent returns the newest runs, optionally filtered by kind.
func (s *Store) Recent(ctx context.Context, kind sim.Kind, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, instance_id, kind, steps, final_value, status, created_at FROM demo_runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing demo runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var k string
		if err := rows.Scan(&r.ID, &r.InstanceID, &k, &r.Steps, &r.FinalValue, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning demo run: %w", err)
		}
		r.Kind = sim.Kind(k)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Stats returns run counts per kind.
func (s *Store) Stats(ctx context.Context) ([]KindStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*), COALESCE(SUM(steps), 0) FROM demo_runs GROUP BY kind ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("counting demo runs: %w", err)
	}
	defer rows.Close()

	var stats []KindStats
	for rows.Next() {
		var st KindStats
		var k string
		if err := rows.Scan(&k, &st.Runs, &st.Steps); err != nil {
			return nil, fmt.Errorf("scanning demo stats: %w", err)
		}
		st.Kind = sim.Kind(k)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
