package model

import (
	"time"

	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

// ChatSession is one conversation thread with a persona. SummarizedAt
// records how many messages the stored Summary covered when it was
// written; readers compare it against len(Messages) to judge staleness.
type ChatSession struct {
	ID        types.SessionID
	Title     string
	Messages  []ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time

	Summary      string
	SummarizedAt int
}

// NewChatSession creates a session with a fresh time-ordered ID
func NewChatSession(title string) *ChatSession {
	return &ChatSession{
		ID:        types.NewSessionID(),
		Title:     title,
		CreatedAt: time.Now(),
	}
}

// LastActivity returns the last time the session changed, falling back to
// creation time for sessions that never received a message.
func (s *ChatSession) LastActivity() time.Time {
	if !s.UpdatedAt.IsZero() {
		return s.UpdatedAt
	}
	return s.CreatedAt
}

// Append adds messages to the transcript and bumps UpdatedAt
func (s *ChatSession) Append(messages ...ChatMessage) {
	s.Messages = append(s.Messages, messages...)
	s.UpdatedAt = time.Now()
}

// UserMessages returns only the user-authored turns, in order
func (s *ChatSession) UserMessages() []ChatMessage {
	var out []ChatMessage
	for _, m := range s.Messages {
		if m.Role == types.RoleUser {
			out = append(out, m)
		}
	}
	return out
}

// Clone returns a deep copy
func (s *ChatSession) Clone() *ChatSession {
	out := *s
	out.Messages = make([]ChatMessage, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}
