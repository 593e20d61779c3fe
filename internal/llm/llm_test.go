package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockProvider records calls and returns a canned response.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func chatRequest() CompletionRequest {
	return CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "what is a gradient?"},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}
}

func TestFactoryNone(t *testing.T) {
	for _, name := range []string{"", "none"} {
		if _, err := NewProvider(name, ""); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("NewProvider(%q) err = %v, want ErrNotConfigured", name, err)
		}
	}
}

func TestFactoryMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	for _, p := range []string{"openai", "google"} {
		if _, err := NewProvider(p, ""); err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryUnknownProvider(t *testing.T) {
	if _, err := NewProvider("anthropic", "x"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestFactoryGoogleKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	p, err := NewProvider("google", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := p.(*GoogleProvider)
	if g.apiKey != "g-key" || g.model != DefaultModel("google") {
		t.Errorf("key %q model %q", g.apiKey, g.model)
	}
}

func TestFactoryOllamaDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	p, err := NewProvider("ollama", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o, ok := p.(*OllamaProvider)
	if !ok {
		t.Fatal("expected *OllamaProvider")
	}
	if o.baseURL != "http://localhost:11434" || o.model != "llama3.2" {
		t.Errorf("baseURL %q model %q", o.baseURL, o.model)
	}
}

func TestNewFromConfigWrapsRateLimiter(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k")
	p, err := NewFromConfig("openai", "gpt-4o", 30)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*RateLimitedProvider); !ok {
		t.Errorf("expected rate limited provider, got %T", p)
	}
	if p.Name() != "openai" {
		t.Errorf("Name = %q", p.Name())
	}
	p, _ = NewFromConfig("openai", "gpt-4o", 0)
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Errorf("expected bare provider with rpm 0, got %T", p)
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := &MockProvider{Response: &CompletionResponse{Content: "ok"}}
	rl := NewRateLimitedProvider(mock, 60)
	resp, err := rl.Complete(context.Background(), chatRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" || len(mock.Calls) != 1 {
		t.Errorf("content %q calls %d", resp.Content, len(mock.Calls))
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := &MockProvider{Response: &CompletionResponse{Content: "ok"}}
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, chatRequest()); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if _, err := rl.Complete(ctx, chatRequest()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("third request err = %v, want deadline exceeded", err)
	}
}

func TestGoogleComplete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		if !strings.HasSuffix(r.URL.Path, "/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A gradient "},{"text":"is a slope."}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":5}}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("secret", "gemini-test")
	p.baseURL = srv.URL
	resp, err := p.Complete(context.Background(), chatRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "A gradient is a slope." || resp.InputTokens != 12 || resp.FinishReason != "STOP" {
		t.Errorf("unexpected response %+v", resp)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("system instruction not sent: %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 1 || got.Contents[0].Role != "user" {
		t.Errorf("contents = %+v", got.Contents)
	}
	if got.GenerationConfig.MaxOutputTokens != 500 || got.GenerationConfig.Temperature != 0.7 {
		t.Errorf("generation config = %+v", got.GenerationConfig)
	}
}

func TestGoogleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key invalid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("bad", "gemini-test")
	p.baseURL = srv.URL
	_, err := p.Complete(context.Background(), chatRequest())
	if err == nil || !strings.Contains(err.Error(), "PERMISSION_DENIED") {
		t.Errorf("err = %v", err)
	}
}

func TestOllamaComplete(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"hi"},"done_reason":"stop","prompt_eval_count":3,"eval_count":1}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llama3.2")
	resp, err := p.Complete(context.Background(), chatRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "hi" || resp.OutputTokens != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
	if got.Stream || len(got.Messages) != 2 || got.Options.NumPredict != 500 {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Complete(context.Background(), chatRequest())
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v", err)
	}
}

func TestOpenAICompatibleEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"slope"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":7,"completion_tokens":1,"total_tokens":8}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", "gpt-test", srv.URL)
	resp, err := p.Complete(context.Background(), chatRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "slope" || resp.InputTokens != 7 || resp.FinishReason != "stop" {
		t.Errorf("unexpected response %+v", resp)
	}
}
