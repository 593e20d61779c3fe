package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yavin-ai/yavin/internal/db"
)

// Store persists users and their login sessions.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates an accounts store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: func() time.Time { return time.Now().UTC() }}
}

const userColumns = `id, email, COALESCE(name, ''), created_at, streak_days, total_xp`

func scanUser(row interface{ Scan(...any) error }, extra ...any) (*User, error) {
	var u User
	dest := append([]any{&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.StreakDays, &u.TotalXP}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser registers a new user after validating the email and password.
func (s *Store) CreateUser(ctx context.Context, email, password, name string) (*User, error) {
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	var existing string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&existing)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{ID: uuid.New().String(), Email: email, Name: strings.TrimSpace(name), CreatedAt: s.now()}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, hash, nullString(u.Name), u.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// Authenticate checks credentials and returns the user. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var hash string
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`, email), &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if !VerifyPassword(password, hash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser returns a user by ID, or nil if it does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// CreateSession opens a login session for the user and returns its token.
func (s *Store) CreateSession(ctx context.Context, userID string) (string, time.Time, error) {
	token := uuid.New().String()
	now := s.now()
	expires := now.Add(SessionTTL)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, userID, now, expires,
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("creating session: %w", err)
	}
	return token, expires, nil
}

// UserForSession resolves a session token to its user. Expired or unknown
// tokens return nil without error.
func (s *Store) UserForSession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	var expires time.Time
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT u.id, u.email, COALESCE(u.name, ''), u.created_at, u.streak_days, u.total_xp, s.expires_at
		 FROM user_sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.id = ?`, token), &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving session: %w", err)
	}
	if !s.now().Before(expires) {
		if err := s.DeleteSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return u, nil
}

// DeleteSession ends a login session.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = ?`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry and reports how
// many were deleted.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at <= ?`, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return res.RowsAffected()
}

// RecordActivity updates the user's daily streak for today and returns the
// new streak length.
func (s *Store) RecordActivity(ctx context.Context, userID string) (int, error) {
	var last sql.NullString
	var streak int
	err := s.db.QueryRowContext(ctx,
		`SELECT last_activity_date, streak_days FROM users WHERE id = ?`, userID,
	).Scan(&last, &streak)
	if err != nil {
		return 0, fmt.Errorf("getting streak: %w", err)
	}

	today := s.now()
	next := NextStreak(last.String, streak, today)
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET streak_days = ?, last_activity_date = ? WHERE id = ?`,
		next, today.Format(time.DateOnly), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating streak: %w", err)
	}
	return next, nil
}

// AddXP credits experience points and returns the new total.
func (s *Store) AddXP(ctx context.Context, userID string, xp int) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET total_xp = total_xp + ? WHERE id = ? RETURNING total_xp`, xp, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("adding xp: %w", err)
	}
	return total, nil
}

// Progress lists the user's per-section progress rows.
func (s *Store) Progress(ctx context.Context, userID string) ([]SectionProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT section_id, completed, quiz_score FROM user_progress WHERE user_id = ? ORDER BY section_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying progress: %w", err)
	}
	defer rows.Close()

	progress := []SectionProgress{}
	for rows.Next() {
		var p SectionProgress
		var score sql.NullInt64
		if err := rows.Scan(&p.SectionID, &p.Completed, &score); err != nil {
			return nil, fmt.Errorf("scanning progress: %w", err)
		}
		if score.Valid {
			v := int(score.Int64)
			p.QuizScore = &v
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
