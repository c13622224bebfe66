package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
)

// ProfileUseCase manages the singleton user profile
type ProfileUseCase struct {
	repo interfaces.Repository
}

// NewProfileUseCase creates a new ProfileUseCase instance
func NewProfileUseCase(repo interfaces.Repository) *ProfileUseCase {
	return &ProfileUseCase{repo: repo}
}

// Get retrieves the user profile; a never-written profile is empty
func (uc *ProfileUseCase) Get(ctx context.Context) (model.UserProfile, error) {
	profile, err := uc.repo.Profile().Get(ctx)
	if err != nil {
		return model.UserProfile{}, goerr.Wrap(err, "failed to get user profile")
	}
	return profile, nil
}

// Put stores the user profile
func (uc *ProfileUseCase) Put(ctx context.Context, profile model.UserProfile) error {
	if err := uc.repo.Profile().Put(ctx, profile); err != nil {
		return goerr.Wrap(err, "failed to put user profile")
	}
	return nil
}
