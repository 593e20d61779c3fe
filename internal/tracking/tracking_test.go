package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yavin-ai/yavin/internal/accounts"
	"github.com/yavin-ai/yavin/internal/db"
)

type fixture struct {
	store *Store
	users *accounts.Store
	user  *accounts.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	users := accounts.NewStore(database)
	u, err := users.CreateUser(context.Background(), "ada@example.com", "longenough", "Ada")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return &fixture{store: NewStore(database), users: users, user: u}
}

// router serves the tracking API with user (possibly nil) attached to every request.
func (f *fixture) router(user *accounts.User) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != nil {
				req = req.WithContext(accounts.WithUser(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	RegisterRoutes(r, f.store, f.users)
	return r
}

func post(h http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var out map[string]any
	json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestLookupSection(t *testing.T) {
	if s, ok := LookupSection("deep"); !ok || s.XP != 200 {
		t.Errorf("deep = %+v %v", s, ok)
	}
	if _, ok := LookupSection("quantum"); ok {
		t.Error("unknown section found")
	}
	if len(Sections) != 8 {
		t.Errorf("expected 8 sections, got %d", len(Sections))
	}
}

func TestPercentages(t *testing.T) {
	if got := CompletionPercent(3); got != 37 {
		t.Errorf("CompletionPercent(3) = %d", got)
	}
	if got := QuizPercent(2, 3); got != 66 {
		t.Errorf("QuizPercent(2,3) = %d", got)
	}
	if got := QuizPercent(5, 0); got != 0 {
		t.Errorf("QuizPercent with zero total = %d", got)
	}
}

func TestProgressRequiresLogin(t *testing.T) {
	f := setup(t)
	w, _ := post(f.router(nil), "/api/progress", `{"section_id":"deep","completed":true}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestProgressAwardsXPOnce(t *testing.T) {
	f := setup(t)
	h := f.router(f.user)

	if w, _ := post(h, "/api/progress", `{"section_id":"quantum","completed":true}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown section: %d", w.Code)
	}

	w, out := post(h, "/api/progress", `{"section_id":"deep","completed":true,"time_spent":30}`)
	if w.Code != http.StatusOK {
		t.Fatalf("progress: %d %s", w.Code, w.Body.String())
	}
	if out["xp_earned"] != 200.0 || out["total_xp"] != 200.0 || out["streak_days"] != 1.0 {
		t.Errorf("first completion %+v", out)
	}

	_, out = post(h, "/api/progress", `{"section_id":"deep","completed":true,"time_spent":15}`)
	if out["xp_earned"] != 0.0 {
		t.Errorf("second completion earned %v", out["xp_earned"])
	}

	var spent int
	f.store.db.QueryRow(`SELECT time_spent_seconds FROM user_progress WHERE user_id = ? AND section_id = 'deep'`, f.user.ID).Scan(&spent)
	if spent != 45 {
		t.Errorf("time spent = %d, want 45", spent)
	}
	if n, _ := f.store.CompletedCount(context.Background(), f.user.ID); n != 1 {
		t.Errorf("completed count = %d", n)
	}
}

func TestQuizAnonymous(t *testing.T) {
	f := setup(t)
	w, out := post(f.router(nil), "/api/quiz", `{"section":"neural","score":3,"total":4}`)
	if w.Code != http.StatusOK || out["percentage"] != 75.0 || out["logged_in"] != false {
		t.Errorf("anonymous quiz %d %+v", w.Code, out)
	}
	if w, _ := post(f.router(nil), "/api/quiz", `{"section":"neural","score":3,"total":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("zero total: %d", w.Code)
	}
}

func TestQuizKeepsBestScoreAndBonus(t *testing.T) {
	f := setup(t)
	h := f.router(f.user)
	ctx := context.Background()

	_, out := post(h, "/api/quiz", `{"section":"neural","score":4,"total":4}`)
	if out["bonus_xp"] != 50.0 || out["logged_in"] != true {
		t.Errorf("perfect quiz %+v", out)
	}
	post(h, "/api/quiz", `{"section":"neural","score":1,"total":4}`)

	progress, err := f.users.Progress(ctx, f.user.ID)
	if err != nil || len(progress) != 1 {
		t.Fatalf("progress %+v err %v", progress, err)
	}
	if progress[0].QuizScore == nil || *progress[0].QuizScore != 100 {
		t.Errorf("best score not kept: %+v", progress[0])
	}
	u, _ := f.users.GetUser(ctx, f.user.ID)
	if u.TotalXP != 50 {
		t.Errorf("total xp = %d", u.TotalXP)
	}
}
