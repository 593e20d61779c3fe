package tracking

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yavin-ai/yavin/internal/accounts"
)

// RegisterRoutes mounts the progress and quiz API.
func RegisterRoutes(r chi.Router, store *Store, users *accounts.Store) {
	r.Post("/api/progress", handleProgress(store, users))
	r.Post("/api/quiz", handleQuiz(store, users))
	r.Get("/api/sections", handleSections())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type progressRequest struct {
	SectionID string `json:"section_id"`
	Completed bool   `json:"completed"`
	TimeSpent int    `json:"time_spent"`
}

func handleProgress(store *Store, users *accounts.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := accounts.CurrentUser(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		var req progressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		section, ok := LookupSection(req.SectionID)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid section ID")
			return
		}

		was, err := store.MarkSection(r.Context(), user.ID, section.ID, req.Completed, req.TimeSpent)
		if err != nil {
			log.Printf("tracking: %v", err)
			writeError(w, http.StatusInternalServerError, "could not save progress")
			return
		}

		earned, total := 0, user.TotalXP
		if req.Completed && !was {
			earned = section.XP
			if t, err := users.AddXP(r.Context(), user.ID, earned); err != nil {
				log.Printf("tracking: %v", err)
			} else {
				total = t
			}
		}

		streak := user.StreakDays
		if s, err := users.RecordActivity(r.Context(), user.ID); err != nil {
			log.Printf("tracking: %v", err)
		} else {
			streak = s
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"xp_earned":   earned,
			"total_xp":    total,
			"streak_days": streak,
		})
	}
}

type quizRequest struct {
	Section string `json:"section"`
	Score   int    `json:"score"`
	Total   int    `json:"total"`
}

func handleQuiz(store *Store, users *accounts.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quizRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Total <= 0 {
			writeError(w, http.StatusBadRequest, "total must be positive")
			return
		}
		pct := QuizPercent(req.Score, req.Total)
		resp := map[string]any{
			"success":    true,
			"score":      req.Score,
			"total":      req.Total,
			"percentage": pct,
			"logged_in":  false,
		}

		user := accounts.CurrentUser(r.Context())
		if user == nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		if err := store.RecordQuiz(r.Context(), user.ID, req.Section, pct); err != nil {
			log.Printf("tracking: %v", err)
			writeError(w, http.StatusInternalServerError, "could not save quiz score")
			return
		}
		bonus := 0
		if pct == 100 {
			bonus = PerfectQuizBonus
			if _, err := users.AddXP(r.Context(), user.ID, bonus); err != nil {
				log.Printf("tracking: %v", err)
			}
		}
		resp["bonus_xp"] = bonus
		resp["logged_in"] = true
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSections() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Sections)
	}
}
