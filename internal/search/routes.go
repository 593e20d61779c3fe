package search

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// MinSimilarity filters out noise matches from the HTTP search.
const MinSimilarity = 0.05

// RegisterRoutes mounts GET /api/search.
func RegisterRoutes(r chi.Router, ix *Index) {
	r.Get("/api/search", handleSearch(ix))
}

func handleSearch(ix *Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		results, err := ix.Search(r.Context(), q, limit, MinSimilarity)
		if errors.Is(err, ErrEmptyQuery) {
			http.Error(w, `{"error":"q is required"}`, http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if results == nil {
			results = []Result{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}
