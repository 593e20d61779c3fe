package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yavin-ai/yavin/internal/accounts"
	"github.com/yavin-ai/yavin/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestSubmitValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, rating := range []int{0, 6} {
		if _, err := store.Submit(ctx, Entry{Rating: rating, Message: "hi"}); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d err = %v", rating, err)
		}
	}
	if _, err := store.Submit(ctx, Entry{Rating: 3, Message: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank message err = %v", err)
	}
}

func TestSubmitAndSummarize(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Submit(ctx, Entry{Rating: 5, Message: "great demos", PageURL: "/neural"})
	store.Submit(ctx, Entry{Rating: 2, Message: "too fast", Name: "Bo"})

	entries, err := store.Recent(ctx, 0)
	if err != nil || len(entries) != 2 {
		t.Fatalf("Recent: %d %v", len(entries), err)
	}
	sum, err := store.Summarize(ctx)
	if err != nil || sum.Count != 2 || sum.Average != 3.5 {
		t.Errorf("summary %+v err %v", sum, err)
	}
}

func TestSubmitRouteAttachesUser(t *testing.T) {
	store := setupTestStore(t)
	users := accounts.NewStore(store.db)
	u, err := users.CreateUser(context.Background(), "ada@example.com", "longenough", "")
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	req := httptest.NewRequest("POST", "/api/feedback/", strings.NewReader(`{"rating":4,"message":"nice"}`))
	req = req.WithContext(accounts.WithUser(req.Context(), u))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Thank you for your feedback!") {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("POST", "/api/feedback/", strings.NewReader(`{"rating":9,"message":"nice"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad rating: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/feedback/", nil))
	var entries []Entry
	json.NewDecoder(w.Body).Decode(&entries)
	if len(entries) != 1 || entries[0].UserID != u.ID {
		t.Errorf("entries %+v", entries)
	}
}
