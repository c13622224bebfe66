package interfaces

import (
	"context"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	Persona() PersonaRepository
	Session() SessionRepository
	Profile() ProfileRepository
	KeyPool() KeyPoolRepository

	Close() error
}

// PersonaRepository persists personas keyed by persona ID
type PersonaRepository interface {
	// Get retrieves a persona. Returns an error wrapping ErrNotFound when
	// the persona does not exist.
	Get(ctx context.Context, id types.PersonaID) (*model.Persona, error)

	// List retrieves all personas
	List(ctx context.Context) ([]*model.Persona, error)

	// Put creates or replaces a persona
	Put(ctx context.Context, persona *model.Persona) error

	// Delete removes a persona. Sessions are cleared separately by the
	// caller via SessionRepository.Clear.
	Delete(ctx context.Context, id types.PersonaID) error
}

// SessionRepository persists chat sessions, scoped to a persona
type SessionRepository interface {
	// Get retrieves a session. Returns an error wrapping ErrNotFound when
	// the session does not exist.
	Get(ctx context.Context, personaID types.PersonaID, id types.SessionID) (*model.ChatSession, error)

	// List retrieves all sessions of a persona
	List(ctx context.Context, personaID types.PersonaID) ([]*model.ChatSession, error)

	// Put creates or replaces a session
	Put(ctx context.Context, personaID types.PersonaID, session *model.ChatSession) error

	// Delete removes a single session
	Delete(ctx context.Context, personaID types.PersonaID, id types.SessionID) error

	// Clear removes all sessions of a persona
	Clear(ctx context.Context, personaID types.PersonaID) error
}

// ProfileRepository persists the singleton user profile. A missing profile
// reads back as the empty profile, never as an error.
type ProfileRepository interface {
	Get(ctx context.Context) (model.UserProfile, error)
	Put(ctx context.Context, profile model.UserProfile) error
}

// KeyPoolRepository persists the singleton API key pool. A missing pool
// reads back as the empty pool, never as an error.
type KeyPoolRepository interface {
	Get(ctx context.Context) (model.KeyPool, error)
	Put(ctx context.Context, pool model.KeyPool) error
}
