// Package feedback collects page ratings and comments from visitors.
package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yavin-ai/yavin/internal/accounts"
	"github.com/yavin-ai/yavin/internal/db"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrEmptyMessage  = errors.New("message is required")
)

// Entry is one piece of submitted feedback.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	PageURL   string    `json:"page_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary aggregates ratings.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Store persists feedback.
type Store struct {
	db *db.DB
}

// NewStore creates a feedback store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Submit validates and stores an entry.
func (s *Store) Submit(ctx context.Context, e Entry) (*Entry, error) {
	if e.Rating < 1 || e.Rating > 5 {
		return nil, ErrInvalidRating
	}
	e.Message = strings.TrimSpace(e.Message)
	if e.Message == "" {
		return nil, ErrEmptyMessage
	}
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, user_id, name, email, rating, message, page_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, null(e.UserID), null(e.Name), null(e.Email), e.Rating, e.Message, null(e.PageURL), e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting feedback: %w", err)
	}
	return &e, nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(user_id, ''), COALESCE(name, ''), COALESCE(email, ''), rating, message, COALESCE(page_url, ''), created_at
		 FROM feedback ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Email, &e.Rating, &e.Message, &e.PageURL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summarize returns the count and mean rating.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), AVG(rating) FROM feedback`).Scan(&sum.Count, &avg); err != nil {
		return sum, fmt.Errorf("summarizing feedback: %w", err)
	}
	sum.Average = avg.Float64
	return sum, nil
}

func null(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// RegisterRoutes mounts the feedback API.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/feedback", func(r chi.Router) {
		r.Post("/", handleSubmit(store))
		r.Get("/", handleList(store))
		r.Get("/summary", handleSummary(store))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Rating  int    `json:"rating"`
	Message string `json:"message"`
	PageURL string `json:"page_url"`
}

func handleSubmit(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		e := Entry{Name: req.Name, Email: req.Email, Rating: req.Rating, Message: req.Message, PageURL: req.PageURL}
		if u := accounts.CurrentUser(r.Context()); u != nil {
			e.UserID = u.ID
		}

		_, err := store.Submit(r.Context(), e)
		if errors.Is(err, ErrInvalidRating) || errors.Is(err, ErrEmptyMessage) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			log.Printf("feedback: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save feedback"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Thank you for your feedback!"})
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := store.Recent(r.Context(), limit)
		if err != nil {
			log.Printf("feedback: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list feedback"})
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleSummary(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := store.Summarize(r.Context())
		if err != nil {
			log.Printf("feedback: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not summarize feedback"})
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}
