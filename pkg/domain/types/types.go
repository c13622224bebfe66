package types

import "github.com/google/uuid"

// PersonaID identifies a persona
type PersonaID string

// NewPersonaID generates a new UUID v4 PersonaID
func NewPersonaID() PersonaID {
	return PersonaID(uuid.New().String())
}

// String returns the string representation of the persona ID
func (x PersonaID) String() string {
	return string(x)
}

// SessionID identifies a chat session. Session IDs are UUID v7 so that
// lexicographic order roughly follows creation order.
type SessionID string

// NewSessionID generates a new UUID v7 SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of the session ID
func (x SessionID) String() string {
	return string(x)
}
