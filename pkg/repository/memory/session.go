package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[types.PersonaID]map[types.SessionID]*model.ChatSession
}

func newSessionRepository() *sessionRepository {
	return &sessionRepository{
		sessions: make(map[types.PersonaID]map[types.SessionID]*model.ChatSession),
	}
}

func (r *sessionRepository) Get(ctx context.Context, personaID types.PersonaID, id types.SessionID) (*model.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[personaID][id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "session not found",
			goerr.V("persona_id", personaID), goerr.V("session_id", id))
	}
	return s.Clone(), nil
}

func (r *sessionRepository) List(ctx context.Context, personaID types.PersonaID) ([]*model.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.ChatSession, 0, len(r.sessions[personaID]))
	for _, s := range r.sessions[personaID] {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].LastActivity().After(out[b].LastActivity())
	})
	return out, nil
}

func (r *sessionRepository) Put(ctx context.Context, personaID types.PersonaID, session *model.ChatSession) error {
	if session.ID == "" {
		return goerr.New("session ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[personaID]; !ok {
		r.sessions[personaID] = make(map[types.SessionID]*model.ChatSession)
	}
	r.sessions[personaID][session.ID] = session.Clone()
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, personaID types.PersonaID, id types.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[personaID][id]; !ok {
		return goerr.Wrap(interfaces.ErrNotFound, "session not found",
			goerr.V("persona_id", personaID), goerr.V("session_id", id))
	}
	delete(r.sessions[personaID], id)
	return nil
}

func (r *sessionRepository) Clear(ctx context.Context, personaID types.PersonaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, personaID)
	return nil
}
