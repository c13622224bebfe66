package usecase

import (
	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/service/conversation"
	"github.com/companion-lab/mnemosyne/pkg/service/retrieval"
)

type UseCases struct {
	repo interfaces.Repository

	Chat    *ChatUseCase
	Session *SessionUseCase
	Persona *PersonaUseCase
	Profile *ProfileUseCase
}

// New wires the use cases over a repository and the two model-facing
// services. Both services share the same gateway underneath.
func New(repo interfaces.Repository, retrievalSvc *retrieval.Service, convSvc *conversation.Service) *UseCases {
	sessionUC := NewSessionUseCase(repo, convSvc)
	return &UseCases{
		repo:    repo,
		Chat:    NewChatUseCase(repo, retrievalSvc, convSvc, sessionUC),
		Session: sessionUC,
		Persona: NewPersonaUseCase(repo),
		Profile: NewProfileUseCase(repo),
	}
}
