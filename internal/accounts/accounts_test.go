package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

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

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("unexpected hash format %q", hash)
	}
	if !VerifyPassword("correct horse", hash) {
		t.Error("expected password to verify")
	}
	if VerifyPassword("wrong horse", hash) {
		t.Error("wrong password verified")
	}
	if VerifyPassword("correct horse", "not-a-hash") {
		t.Error("malformed hash verified")
	}
	other, _ := HashPassword("correct horse")
	if other == hash {
		t.Error("hashes should be salted")
	}
}

func TestNextStreak(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		last   string
		streak int
		want   int
	}{
		{"", 0, 1},
		{"2026-03-10", 4, 4},
		{"2026-03-09", 4, 5},
		{"2026-03-07", 4, 1},
		{"garbage", 9, 1},
	}
	for _, tt := range tests {
		if got := NextStreak(tt.last, tt.streak, today); got != tt.want {
			t.Errorf("NextStreak(%q, %d) = %d, want %d", tt.last, tt.streak, got, tt.want)
		}
	}
}

func TestCreateUserValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, "a@b", "longenough", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("short email err = %v", err)
	}
	if _, err := store.CreateUser(ctx, "nobody.example.com", "longenough", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("email without @ err = %v", err)
	}
	if _, err := store.CreateUser(ctx, "ada@example.com", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password err = %v", err)
	}
	if _, err := store.CreateUser(ctx, "ada@example.com", "longenough", "Ada"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := store.CreateUser(ctx, "ada@example.com", "longenough", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	created, _ := store.CreateUser(ctx, "ada@example.com", "longenough", "Ada")

	u, err := store.Authenticate(ctx, "ada@example.com", "longenough")
	if err != nil || u.ID != created.ID || u.Name != "Ada" {
		t.Fatalf("Authenticate: %+v %v", u, err)
	}
	if _, err := store.Authenticate(ctx, "ada@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password err = %v", err)
	}
	if _, err := store.Authenticate(ctx, "bob@example.com", "longenough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	u, _ := store.CreateUser(ctx, "ada@example.com", "longenough", "")

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }
	token, expires, err := store.CreateSession(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !expires.Equal(start.Add(SessionTTL)) {
		t.Errorf("expires = %v", expires)
	}

	got, err := store.UserForSession(ctx, token)
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("UserForSession: %+v %v", got, err)
	}

	store.now = func() time.Time { return start.Add(SessionTTL + time.Minute) }
	if got, _ := store.UserForSession(ctx, token); got != nil {
		t.Error("expired session still resolves")
	}
	if got, _ := store.UserForSession(ctx, "missing"); got != nil {
		t.Error("unknown token resolved")
	}
}

func TestPurgeExpiredSessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	u, _ := store.CreateUser(ctx, "ada@example.com", "longenough", "")

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }
	store.CreateSession(ctx, u.ID)
	store.now = func() time.Time { return start.Add(20 * 24 * time.Hour) }
	store.CreateSession(ctx, u.ID)

	store.now = func() time.Time { return start.Add(31 * 24 * time.Hour) }
	n, err := store.PurgeExpiredSessions(ctx)
	if err != nil || n != 1 {
		t.Errorf("purged %d err %v, want 1", n, err)
	}
}

func TestRecordActivityAndXP(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	u, _ := store.CreateUser(ctx, "ada@example.com", "longenough", "")

	day := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, want := range []int{1, 1, 2} {
		store.now = func() time.Time { return day.Add(time.Duration(i/2) * 24 * time.Hour) }
		got, err := store.RecordActivity(ctx, u.ID)
		if err != nil || got != want {
			t.Errorf("activity %d: streak %d err %v, want %d", i, got, err, want)
		}
	}

	store.AddXP(ctx, u.ID, 100)
	total, err := store.AddXP(ctx, u.ID, 50)
	if err != nil || total != 150 {
		t.Errorf("total xp %d err %v", total, err)
	}
}

func setupRouter(t *testing.T) (http.Handler, *Store) {
	t.Helper()
	store := setupTestStore(t)
	r := chi.NewRouter()
	r.Use(Middleware(store))
	RegisterRoutes(r, store, false)
	return r, store
}

func post(r http.Handler, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestRegisterLoginMeLogout(t *testing.T) {
	r, _ := setupRouter(t)

	w := post(r, "/api/auth/register", `{"email":"ada@example.com","password":"longenough","name":"Ada"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var me struct {
		LoggedIn bool              `json:"logged_in"`
		User     User              `json:"user"`
		Progress []SectionProgress `json:"progress"`
	}
	json.NewDecoder(w.Body).Decode(&me)
	if !me.LoggedIn || me.User.Email != "ada@example.com" || me.Progress == nil {
		t.Errorf("unexpected me response %+v", me)
	}

	if w := post(r, "/api/auth/register", `{"email":"ada@example.com","password":"longenough"}`, nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate register: %d", w.Code)
	}

	w = post(r, "/api/auth/login", `{"email":"ada@example.com","password":"longenough"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d", w.Code)
	}
	var login struct {
		User User `json:"user"`
	}
	json.NewDecoder(w.Body).Decode(&login)
	if login.User.StreakDays != 1 {
		t.Errorf("streak after first login = %d", login.User.StreakDays)
	}
	loginCookie := sessionCookie(t, w)

	post(r, "/api/auth/logout", "", loginCookie)
	req = httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(loginCookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"logged_in":false`) {
		t.Errorf("me after logout: %s", w.Body.String())
	}
}

func TestLoginFailures(t *testing.T) {
	r, store := setupRouter(t)
	store.CreateUser(context.Background(), "ada@example.com", "longenough", "")

	for _, body := range []string{
		`{"email":"ada@example.com","password":"nope-nope"}`,
		`{"email":"bob@example.com","password":"longenough"}`,
	} {
		w := post(r, "/api/auth/login", body, nil)
		if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Invalid email or password") {
			t.Errorf("login %s: %d %s", body, w.Code, w.Body.String())
		}
	}
	if w := post(r, "/api/auth/register", `{"email":"x","password":"longenough"}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad email register: %d", w.Code)
	}
}

func TestCurrentUserAnonymous(t *testing.T) {
	if CurrentUser(context.Background()) != nil {
		t.Error("expected nil user")
	}
	u := &User{ID: "u1"}
	if got := CurrentUser(WithUser(context.Background(), u)); got != u {
		t.Errorf("CurrentUser = %v", got)
	}
}
