package accounts

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the account API. secure controls the Secure flag on
// the session cookie.
func RegisterRoutes(r chi.Router, store *Store, secure bool) {
	c := cookies{secure: secure}
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handleRegister(store, c))
		r.Post("/login", handleLogin(store, c))
		r.Post("/logout", handleLogout(store, c))
		r.Get("/me", handleMe(store))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func handleRegister(store *Store, c cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		u, err := store.CreateUser(r.Context(), req.Email, req.Password, req.Name)
		switch {
		case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			log.Printf("accounts: register: %v", err)
			writeError(w, http.StatusInternalServerError, "could not create account")
			return
		}

		if !startSession(w, r, store, c, u.ID) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Account created successfully",
			"user":    map[string]string{"id": u.ID, "email": u.Email, "name": u.Name},
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func handleLogin(store *Store, c cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		u, err := store.Authenticate(r.Context(), req.Email, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		if err != nil {
			log.Printf("accounts: login: %v", err)
			writeError(w, http.StatusInternalServerError, "could not log in")
			return
		}

		if streak, err := store.RecordActivity(r.Context(), u.ID); err != nil {
			log.Printf("accounts: streak for %s: %v", u.ID, err)
		} else {
			u.StreakDays = streak
		}

		if !startSession(w, r, store, c, u.ID) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
	}
}

func startSession(w http.ResponseWriter, r *http.Request, store *Store, c cookies, userID string) bool {
	token, expires, err := store.CreateSession(r.Context(), userID)
	if err != nil {
		log.Printf("accounts: %v", err)
		writeError(w, http.StatusInternalServerError, "Session error")
		return false
	}
	c.set(w, token, expires)
	return true
}

func handleLogout(store *Store, c cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(SessionCookie); err == nil && ck.Value != "" {
			if err := store.DeleteSession(r.Context(), ck.Value); err != nil {
				log.Printf("accounts: logout: %v", err)
			}
		}
		c.clear(w)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
	}
}

func handleMe(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r.Context())
		if u == nil {
			writeJSON(w, http.StatusOK, map[string]any{"logged_in": false})
			return
		}
		progress, err := store.Progress(r.Context(), u.ID)
		if err != nil {
			log.Printf("accounts: %v", err)
			progress = []SectionProgress{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"logged_in": true,
			"user":      u,
			"progress":  progress,
		})
	}
}
