package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

type personaRepository struct {
	mu       sync.RWMutex
	personas map[types.PersonaID]*model.Persona
}

func newPersonaRepository() *personaRepository {
	return &personaRepository{
		personas: make(map[types.PersonaID]*model.Persona),
	}
}

func (r *personaRepository) Get(ctx context.Context, id types.PersonaID) (*model.Persona, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.personas[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "persona not found", goerr.V("id", id))
	}
	return p.Clone(), nil
}

func (r *personaRepository) List(ctx context.Context) ([]*model.Persona, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

func (r *personaRepository) Put(ctx context.Context, persona *model.Persona) error {
	if persona.ID == "" {
		return goerr.New("persona ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := persona.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = time.Now().UTC()
	r.personas[persona.ID] = stored
	return nil
}

func (r *personaRepository) Delete(ctx context.Context, id types.PersonaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.personas[id]; !ok {
		return goerr.Wrap(interfaces.ErrNotFound, "persona not found", goerr.V("id", id))
	}
	delete(r.personas, id)
	return nil
}
