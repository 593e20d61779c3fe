package search

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yavin-ai/yavin/internal/pages"
)

func TestTrigramEmbedderNormalized(t *testing.T) {
	e := NewTrigramEmbedder(64)
	vecs, err := e.Embed(context.Background(), []string{"Gradient descent", ""})
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("norm² = %v, want 1", sum)
	}
	for _, x := range vecs[1] {
		if x != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}
	if e.Dimensions() != 64 || NewTrigramEmbedder(0).Dimensions() != DefaultDimensions {
		t.Error("unexpected dimensions")
	}
}

func TestTrigramEmbedderCaseInsensitive(t *testing.T) {
	e := NewTrigramEmbedder(0)
	vecs, _ := e.Embed(context.Background(), []string{"Attention!", "attention"})
	for i := range vecs[0] {
		if vecs[0][i] != vecs[1][i] {
			t.Fatal("embedding should ignore case and punctuation")
		}
	}
}

func setupIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(NewTrigramEmbedder(0))
	if err != nil {
		t.Fatal(err)
	}
	err = ix.Add(context.Background(), []Document{
		{ID: "foundations", Heading: "Foundations", Href: "/foundations", Content: "gradient descent follows the slope of the loss"},
		{ID: "modern", Heading: "Modern AI", Href: "/modern", Content: "attention weights softmax transformers"},
		{ID: "ethics", Heading: "Ethics & Society", Href: "/ethics", Content: "bias transparency accountability"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestSearchToleratesTypos(t *testing.T) {
	ix := setupIndex(t)
	tests := []struct {
		query string
		want  string
	}{
		{"gradient", "foundations"},
		{"atention wieghts", "modern"},
		{"accountabilty", "ethics"},
	}
	for _, tt := range tests {
		results, err := ix.Search(context.Background(), tt.query, 3, 0)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.query, err)
		}
		if len(results) == 0 || results[0].ID != tt.want {
			t.Errorf("Search(%q) top = %+v, want %s", tt.query, results, tt.want)
		}
	}
}

func TestSearchLimitsAndErrors(t *testing.T) {
	ix := setupIndex(t)
	results, err := ix.Search(context.Background(), "the", 50, 0)
	if err != nil || len(results) != 3 {
		t.Errorf("limit clamp: %d results err %v", len(results), err)
	}
	if _, err := ix.Search(context.Background(), " ?! ", 3, 0); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("empty query err = %v", err)
	}

	empty, _ := NewIndex(NewTrigramEmbedder(0))
	if results, err := empty.Search(context.Background(), "anything", 3, 0); err != nil || results != nil {
		t.Errorf("empty index: %v %v", results, err)
	}
}

func TestLessonIndexRoute(t *testing.T) {
	lib, err := pages.LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	ix, err := BuildLessonIndex(context.Background(), lib)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Count() != len(lib.All()) {
		t.Errorf("indexed %d of %d lessons", ix.Count(), len(lib.All()))
	}

	r := chi.NewRouter()
	RegisterRoutes(r, ix)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/search?q=glosary", nil))
	var results []Result
	json.NewDecoder(w.Body).Decode(&results)
	if w.Code != http.StatusOK || len(results) == 0 || results[0].Href != "/glossary" {
		t.Errorf("search route: %d %+v", w.Code, results)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/search", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q: %d", w.Code)
	}
}
