package model

import "github.com/companion-lab/mnemosyne/pkg/domain/types"

// ChatMessage is one turn of a conversation
type ChatMessage struct {
	Role    types.Role
	Content string
}

// UserMessage creates a user-authored message
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: types.RoleUser, Content: content}
}

// AssistantMessage creates a persona-authored message
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: types.RoleAssistant, Content: content}
}
