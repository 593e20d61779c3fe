package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/yavin-ai/yavin/internal/db"
	"github.com/yavin-ai/yavin/internal/llm"
)

// Store persists chat sessions and their messages.
type Store struct {
	db *db.DB
}

// NewStore creates a chat store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateSession starts a new conversation for userID.
func (s *Store) CreateSession(ctx context.Context, userID string) (*Session, error) {
	now := time.Now().UTC()
	sess := Session{ID: uuid.New().String(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &sess, nil
}

// GetSession returns a session, or nil if it does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM chat_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &sess, nil
}

// AddMessage appends a message and bumps the session's updated_at.
func (s *Store) AddMessage(ctx context.Context, sessionID string, role llm.Role, content string) (*Message, error) {
	msg := Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, string(msg.Role), msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("adding message: %w", err)
	}
	s.db.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, msg.CreatedAt, sessionID)
	return &msg, nil
}

// Messages returns a session's messages oldest first. A positive limit keeps
// only the most recent limit messages.
func (s *Store) Messages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	query := `SELECT id, session_id, role, content, created_at FROM chat_messages WHERE session_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = llm.Role(role)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}
