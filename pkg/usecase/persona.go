package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

// PersonaUseCase manages persona definitions and their long-term memory
type PersonaUseCase struct {
	repo interfaces.Repository
}

// NewPersonaUseCase creates a new PersonaUseCase instance
func NewPersonaUseCase(repo interfaces.Repository) *PersonaUseCase {
	return &PersonaUseCase{repo: repo}
}

// Get retrieves one persona
func (uc *PersonaUseCase) Get(ctx context.Context, id types.PersonaID) (*model.Persona, error) {
	persona, err := uc.repo.Persona().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrPersonaNotFound, "unknown persona", goerr.V("persona_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get persona")
	}
	return persona, nil
}

// List retrieves all personas
func (uc *PersonaUseCase) List(ctx context.Context) ([]*model.Persona, error) {
	personas, err := uc.repo.Persona().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list personas")
	}
	return personas, nil
}

// Put validates and stores a persona, assigning an ID when missing
func (uc *PersonaUseCase) Put(ctx context.Context, persona *model.Persona) (*model.Persona, error) {
	if persona.ID == "" {
		persona.ID = types.NewPersonaID()
	}
	if err := persona.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repo.Persona().Put(ctx, persona); err != nil {
		return nil, goerr.Wrap(err, "failed to put persona", goerr.V("persona_id", persona.ID))
	}
	return persona, nil
}

// Delete removes a persona together with all of its sessions
func (uc *PersonaUseCase) Delete(ctx context.Context, id types.PersonaID) error {
	if err := uc.repo.Session().Clear(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to clear sessions of persona", goerr.V("persona_id", id))
	}
	if err := uc.repo.Persona().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrPersonaNotFound, "unknown persona", goerr.V("persona_id", id))
		}
		return goerr.Wrap(err, "failed to delete persona")
	}
	return nil
}
