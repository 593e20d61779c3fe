// Package newsletter stores newsletter subscriptions.
package newsletter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yavin-ai/yavin/internal/accounts"
	"github.com/yavin-ai/yavin/internal/db"
)

// Outcome describes what Subscribe did.
type Outcome int

const (
	Subscribed Outcome = iota
	AlreadySubscribed
	Resubscribed
)

var messages = map[Outcome]string{
	Subscribed:        "Thanks for subscribing! You'll receive AI insights and updates.",
	AlreadySubscribed: "You're already subscribed to our newsletter!",
	Resubscribed:      "Welcome back! You've been re-subscribed to our newsletter.",
}

// ErrInvalidEmail is returned for addresses failing the site's email check.
var ErrInvalidEmail = errors.New("invalid email address")

// Store persists subscribers.
type Store struct {
	db *db.DB
}

// NewStore creates a newsletter store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Subscribe adds email to the list, re-activating a previous unsubscribe.
func (s *Store) Subscribe(ctx context.Context, email, source string) (Outcome, error) {
	email = strings.TrimSpace(email)
	if !accounts.ValidEmail(email) {
		return 0, ErrInvalidEmail
	}
	if source == "" {
		source = "website"
	}

	var id string
	var unsubscribed bool
	err := s.db.QueryRowContext(ctx,
		`SELECT id, unsubscribed FROM newsletter_subscribers WHERE email = ?`, email,
	).Scan(&id, &unsubscribed)
	switch {
	case err == nil && unsubscribed:
		_, err = s.db.ExecContext(ctx,
			`UPDATE newsletter_subscribers SET unsubscribed = 0, subscribed_at = ? WHERE id = ?`,
			time.Now().UTC(), id)
		if err != nil {
			return 0, fmt.Errorf("resubscribing: %w", err)
		}
		return Resubscribed, nil
	case err == nil:
		return AlreadySubscribed, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("checking subscriber: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO newsletter_subscribers (id, email, source, subscribed_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), email, source, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("inserting subscriber: %w", err)
	}
	return Subscribed, nil
}

// Unsubscribe marks email as unsubscribed. It reports whether the address
// was on the list.
func (s *Store) Unsubscribe(ctx context.Context, email string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE newsletter_subscribers SET unsubscribed = 1 WHERE email = ?`, strings.TrimSpace(email))
	if err != nil {
		return false, fmt.Errorf("unsubscribing: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RegisterRoutes mounts the newsletter API.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Post("/api/newsletter", handleSubscribe(store))
	r.Post("/api/newsletter/unsubscribe", handleUnsubscribe(store))
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func handleSubscribe(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		outcome, err := store.Subscribe(r.Context(), req.Email, req.Source)
		if errors.Is(err, ErrInvalidEmail) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Please enter a valid email address"})
			return
		}
		if err != nil {
			log.Printf("newsletter: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not subscribe"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": messages[outcome]})
	}
}

func handleUnsubscribe(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		found, err := store.Unsubscribe(r.Context(), req.Email)
		if err != nil {
			log.Printf("newsletter: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not unsubscribe"})
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "email not subscribed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
