package newsletter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

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

func TestSubscribeLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	steps := []struct {
		name string
		run  func() (Outcome, error)
		want Outcome
	}{
		{"new", func() (Outcome, error) { return store.Subscribe(ctx, "ada@example.com", "") }, Subscribed},
		{"again", func() (Outcome, error) { return store.Subscribe(ctx, " ada@example.com ", "footer") }, AlreadySubscribed},
		{"after unsubscribe", func() (Outcome, error) {
			if ok, err := store.Unsubscribe(ctx, "ada@example.com"); !ok || err != nil {
				t.Fatalf("Unsubscribe: %v %v", ok, err)
			}
			return store.Subscribe(ctx, "ada@example.com", "")
		}, Resubscribed},
	}
	for _, s := range steps {
		got, err := s.run()
		if err != nil || got != s.want {
			t.Errorf("%s: outcome %v err %v, want %v", s.name, got, err, s.want)
		}
	}

	var source string
	store.db.QueryRow(`SELECT source FROM newsletter_subscribers WHERE email = ?`, "ada@example.com").Scan(&source)
	if source != "website" {
		t.Errorf("default source = %q", source)
	}
}

func TestSubscribeInvalidEmail(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.Subscribe(context.Background(), "nope", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("err = %v", err)
	}
}

func TestSubscribeRoute(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, setupTestStore(t))

	req := httptest.NewRequest("POST", "/api/newsletter", strings.NewReader(`{"email":"ada@example.com"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Thanks for subscribing") {
		t.Errorf("subscribe: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("POST", "/api/newsletter", strings.NewReader(`{"email":"bad"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad email: %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/api/newsletter/unsubscribe", strings.NewReader(`{"email":"who@example.com"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unsubscribe unknown: %d", w.Code)
	}
}
