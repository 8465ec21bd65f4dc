package store

import (
	"time"

	"ai-chat-router-be/pkg/ai/classifier"
)

// Session represents the conversation state kept in memory between messages.
// Losing it is harmless: the next message simply starts a fresh upstream thread.
type Session struct {
	ID       string              `json:"id"` // Caller-supplied session id
	UserID   string              `json:"user_id"`
	Category classifier.Category `json:"category"`

	// Chat id handed out by the generation API, reused for continuations
	UpstreamChatID string `json:"upstream_chat_id"`

	// Metadata for last interaction
	LastQuery  string    `json:"last_query"`
	LastAnswer string    `json:"last_answer"`
	Turns      int       `json:"turns"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsNew reports whether no message has been answered in this session yet
func (s *Session) IsNew() bool {
	return s.Turns == 0
}
