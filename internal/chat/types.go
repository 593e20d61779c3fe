// Package chat is the site's AI tutor: it forwards learner questions to the
// configured LLM provider and keeps the conversation in sqlite.
package chat

import (
	"time"

	"github.com/yavin-ai/yavin/internal/llm"
)

// Replies used when no real completion is available.
const (
	GreetingReply     = "I'm the Yavin AI assistant! To enable full AI capabilities, please configure the GEMINI_API_KEY. For now, I can help you navigate this educational platform. What would you like to learn about AI?"
	ConnectionReply   = "I'm having trouble connecting. Please try again."
	EmptyOutputReply  = "I couldn't process that. Please try rephrasing."
	AnonymousUser     = "anonymous"
	DefaultTemp       = 0.7
	DefaultMaxTokens  = 500
	DefaultHistoryLen = 10
)

// SystemPrompt frames every conversation.
const SystemPrompt = "You are an AI education assistant on Yavin, a comprehensive AI learning platform. " +
	"The user is learning about AI fundamentals, machine learning, neural networks, deep learning, modern AI systems, and ethics. " +
	"Provide clear, educational, and encouraging responses. Keep answers concise but informative."

// Message is one stored turn of a conversation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      llm.Role  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session groups the messages of one conversation.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reply is what Ask returns to the caller.
type Reply struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	// Fallback is set when Response is a canned reply rather than model output.
	Fallback bool `json:"fallback,omitempty"`
}
