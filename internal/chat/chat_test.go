package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yavin-ai/yavin/internal/db"
	"github.com/yavin-ai/yavin/internal/llm"
)

type mockProvider struct {
	mu       sync.Mutex
	requests []llm.CompletionRequest
	content  string
	err      error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.content}, nil
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestAskWithoutProvider(t *testing.T) {
	a := NewAssistant(setupTestStore(t), nil, DefaultOptions())
	reply, err := a.Ask(context.Background(), "", "", "what is attention?")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Response != GreetingReply || !reply.Fallback || reply.SessionID == "" {
		t.Errorf("unexpected reply %+v", reply)
	}
}

func TestAskEmptyMessage(t *testing.T) {
	a := NewAssistant(setupTestStore(t), nil, DefaultOptions())
	if _, err := a.Ask(context.Background(), "", "", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v", err)
	}
}

func TestAskFallbacks(t *testing.T) {
	tests := []struct {
		name string
		mock *mockProvider
		want string
	}{
		{"provider error", &mockProvider{err: errors.New("timeout")}, ConnectionReply},
		{"empty output", &mockProvider{content: "  \n"}, EmptyOutputReply},
		{"answer", &mockProvider{content: " A gradient is a slope. "}, "A gradient is a slope."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssistant(setupTestStore(t), tt.mock, DefaultOptions())
			reply, err := a.Ask(context.Background(), "u1", "", "what is a gradient?")
			if err != nil {
				t.Fatal(err)
			}
			if reply.Response != tt.want {
				t.Errorf("response = %q, want %q", reply.Response, tt.want)
			}
		})
	}
}

func TestAskSendsPromptAndHistory(t *testing.T) {
	store := setupTestStore(t)
	mock := &mockProvider{content: "ok"}
	a := NewAssistant(store, mock, DefaultOptions())
	ctx := context.Background()

	first, _ := a.Ask(ctx, "u1", "", "first question")
	second, _ := a.Ask(ctx, "u1", first.SessionID, "second question")
	if second.SessionID != first.SessionID {
		t.Fatalf("session changed: %s -> %s", first.SessionID, second.SessionID)
	}

	req := mock.requests[1]
	if req.Temperature != 0.7 || req.MaxTokens != 500 {
		t.Errorf("generation settings %v/%d", req.Temperature, req.MaxTokens)
	}
	roles := make([]llm.Role, len(req.Messages))
	for i, m := range req.Messages {
		roles[i] = m.Role
	}
	want := []llm.Role{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleUser}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v", roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
	if req.Messages[0].Content != SystemPrompt || req.Messages[3].Content != "second question" {
		t.Errorf("unexpected messages %+v", req.Messages)
	}

	msgs, _ := store.Messages(ctx, first.SessionID, 0)
	if len(msgs) != 4 {
		t.Errorf("stored %d messages, want 4", len(msgs))
	}
}

func TestAskForeignSessionStartsNew(t *testing.T) {
	a := NewAssistant(setupTestStore(t), nil, DefaultOptions())
	ctx := context.Background()
	mine, _ := a.Ask(ctx, "u1", "", "hello")
	theirs, _ := a.Ask(ctx, "u2", mine.SessionID, "hello")
	if theirs.SessionID == mine.SessionID {
		t.Error("another user's session was reused")
	}
}

func TestMessagesLimitKeepsNewest(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	sess, _ := store.CreateSession(ctx, "u1")
	for _, c := range []string{"a", "b", "c"} {
		store.AddMessage(ctx, sess.ID, llm.RoleUser, c)
	}
	msgs, err := store.Messages(ctx, sess.ID, 2)
	if err != nil || len(msgs) != 2 || msgs[0].Content != "b" || msgs[1].Content != "c" {
		t.Errorf("messages %+v err %v", msgs, err)
	}
}

func TestChatRoutes(t *testing.T) {
	store := setupTestStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, NewAssistant(store, &mockProvider{content: "slope"}, DefaultOptions()), store)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":""}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Message is required") {
		t.Errorf("empty message: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"what is a gradient?"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var reply Reply
	json.NewDecoder(w.Body).Decode(&reply)
	if w.Code != http.StatusOK || reply.Response != "slope" {
		t.Fatalf("chat: %d %+v", w.Code, reply)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/chat/sessions/"+reply.SessionID+"/messages", nil))
	var msgs []Message
	json.NewDecoder(w.Body).Decode(&msgs)
	if len(msgs) != 2 {
		t.Errorf("messages = %d", len(msgs))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/chat/sessions/nope/messages", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown session: %d", w.Code)
	}
}
