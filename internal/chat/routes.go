package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yavin-ai/yavin/internal/accounts"
)

// RegisterRoutes mounts the chat API.
func RegisterRoutes(r chi.Router, assistant *Assistant, store *Store) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", handleChat(assistant))
		r.Get("/sessions/{id}/messages", handleMessages(store))
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func userID(r *http.Request) string {
	if u := accounts.CurrentUser(r.Context()); u != nil {
		return u.ID
	}
	return AnonymousUser
}

func handleChat(assistant *Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		reply, err := assistant.Ask(r.Context(), userID(r), req.SessionID, req.Message)
		if errors.Is(err, ErrEmptyMessage) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is required"})
			return
		}
		if err != nil {
			log.Printf("chat: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not process message"})
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

func handleMessages(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := store.GetSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			log.Printf("chat: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load session"})
			return
		}
		if sess == nil || sess.UserID != userID(r) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		messages, err := store.Messages(r.Context(), sess.ID, 0)
		if err != nil {
			log.Printf("chat: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load messages"})
			return
		}
		writeJSON(w, http.StatusOK, messages)
	}
}
