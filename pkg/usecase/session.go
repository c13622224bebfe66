package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
	"github.com/companion-lab/mnemosyne/pkg/service/conversation"
)

// SessionUseCase manages chat sessions of a persona
type SessionUseCase struct {
	repo interfaces.Repository
	conv *conversation.Service
}

// NewSessionUseCase creates a new SessionUseCase instance
func NewSessionUseCase(repo interfaces.Repository, convSvc *conversation.Service) *SessionUseCase {
	return &SessionUseCase{
		repo: repo,
		conv: convSvc,
	}
}

// Create starts a new empty session for a persona
func (uc *SessionUseCase) Create(ctx context.Context, personaID types.PersonaID, title string) (*model.ChatSession, error) {
	if _, err := uc.repo.Persona().Get(ctx, personaID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrPersonaNotFound, "unknown persona", goerr.V("persona_id", personaID))
		}
		return nil, goerr.Wrap(err, "failed to load persona")
	}

	session := model.NewChatSession(title)
	if err := uc.repo.Session().Put(ctx, personaID, session); err != nil {
		return nil, goerr.Wrap(err, "failed to create session")
	}
	return session, nil
}

// Get retrieves one session
func (uc *SessionUseCase) Get(ctx context.Context, personaID types.PersonaID, id types.SessionID) (*model.ChatSession, error) {
	session, err := uc.repo.Session().Get(ctx, personaID, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrSessionNotFound, "unknown session", goerr.V("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session")
	}
	return session, nil
}

// List retrieves all sessions of a persona, most recent first
func (uc *SessionUseCase) List(ctx context.Context, personaID types.PersonaID) ([]*model.ChatSession, error) {
	sessions, err := uc.repo.Session().List(ctx, personaID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions")
	}
	return sessions, nil
}

// Delete removes one session
func (uc *SessionUseCase) Delete(ctx context.Context, personaID types.PersonaID, id types.SessionID) error {
	if err := uc.repo.Session().Delete(ctx, personaID, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrSessionNotFound, "unknown session", goerr.V("session_id", id))
		}
		return goerr.Wrap(err, "failed to delete session")
	}
	return nil
}

// Clear removes all sessions of a persona
func (uc *SessionUseCase) Clear(ctx context.Context, personaID types.PersonaID) error {
	if err := uc.repo.Session().Clear(ctx, personaID); err != nil {
		return goerr.Wrap(err, "failed to clear sessions")
	}
	return nil
}

// Summarize regenerates the stored summary of a session and records the
// message count it covered, which anchors later staleness patching.
// Summarization failures are fatal to the operation, not absorbed.
func (uc *SessionUseCase) Summarize(ctx context.Context, personaID types.PersonaID, id types.SessionID) (string, error) {
	session, err := uc.Get(ctx, personaID, id)
	if err != nil {
		return "", err
	}
	if len(session.Messages) == 0 {
		return "", goerr.New("session has no messages to summarize", goerr.V("session_id", id))
	}

	summary, err := uc.conv.Summarize(ctx, session.Messages)
	if err != nil {
		return "", err
	}

	session.Summary = summary
	session.SummarizedAt = len(session.Messages)
	if err := uc.repo.Session().Put(ctx, personaID, session); err != nil {
		return "", goerr.Wrap(err, "failed to persist session summary", goerr.V("session_id", id))
	}

	return summary, nil
}
