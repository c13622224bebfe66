package memory

import (
	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
)

// Memory is the in-memory Repository implementation, used in development
// mode and as the test twin of the Firestore backend.
type Memory struct {
	persona *personaRepository
	session *sessionRepository
	profile *profileRepository
	keyPool *keyPoolRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		persona: newPersonaRepository(),
		session: newSessionRepository(),
		profile: newProfileRepository(),
		keyPool: newKeyPoolRepository(),
	}
}

func (m *Memory) Persona() interfaces.PersonaRepository {
	return m.persona
}

func (m *Memory) Session() interfaces.SessionRepository {
	return m.session
}

func (m *Memory) Profile() interfaces.ProfileRepository {
	return m.profile
}

func (m *Memory) KeyPool() interfaces.KeyPoolRepository {
	return m.keyPool
}

func (m *Memory) Close() error {
	return nil
}
