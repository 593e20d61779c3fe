package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yavin-ai/yavin/internal/llm"
)

// ErrEmptyMessage is returned for blank questions.
var ErrEmptyMessage = errors.New("message is required")

// Options tune the completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
	// HistoryLen is how many earlier messages are replayed to the model.
	HistoryLen int
}

// DefaultOptions returns the site's standard generation settings.
func DefaultOptions() Options {
	return Options{Temperature: DefaultTemp, MaxTokens: DefaultMaxTokens, HistoryLen: DefaultHistoryLen}
}

// Assistant answers learner questions. A nil provider makes every answer the
// canned greeting.
type Assistant struct {
	store    *Store
	provider llm.Provider
	opts     Options
}

// NewAssistant creates an assistant. provider may be nil.
func NewAssistant(store *Store, provider llm.Provider, opts Options) *Assistant {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Assistant{store: store, provider: provider, opts: opts}
}

// Configured reports whether a real provider is attached.
func (a *Assistant) Configured() bool { return a.provider != nil }

// Ask answers message within the given session, creating a session when
// sessionID is empty, unknown or owned by someone else. Provider failures
// never surface as errors; they become canned replies.
func (a *Assistant) Ask(ctx context.Context, userID, sessionID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if userID == "" {
		userID = AnonymousUser
	}

	sess, err := a.session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	var history []Message
	if a.opts.HistoryLen > 0 {
		history, err = a.store.Messages(ctx, sess.ID, a.opts.HistoryLen)
		if err != nil {
			return nil, err
		}
	}
	if _, err := a.store.AddMessage(ctx, sess.ID, llm.RoleUser, message); err != nil {
		return nil, err
	}

	reply := &Reply{SessionID: sess.ID}
	reply.Response, reply.Fallback = a.complete(ctx, history, message)

	if _, err := a.store.AddMessage(ctx, sess.ID, llm.RoleAssistant, reply.Response); err != nil {
		return nil, err
	}
	return reply, nil
}

func (a *Assistant) session(ctx context.Context, userID, sessionID string) (*Session, error) {
	if sessionID != "" {
		sess, err := a.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if sess != nil && sess.UserID == userID {
			return sess, nil
		}
	}
	sess, err := a.store.CreateSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("starting chat: %w", err)
	}
	return sess, nil
}

func (a *Assistant) complete(ctx context.Context, history []Message, message string) (string, bool) {
	if a.provider == nil {
		return GreetingReply, true
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Messages:    msgs,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		log.Printf("chat: %s completion: %v", a.provider.Name(), err)
		return ConnectionReply, true
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return EmptyOutputReply, true
	}
	return text, false
}
