package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
	"github.com/companion-lab/mnemosyne/pkg/service/conversation"
	"github.com/companion-lab/mnemosyne/pkg/service/retrieval"
	"github.com/companion-lab/mnemosyne/pkg/utils/async"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// maxTitleLen bounds session titles derived from the first user message
const maxTitleLen = 60

// ChatUseCase runs one full chat turn: memory retrieval, persona
// generation, memory consolidation, and persistence. Turns against the
// same persona are expected to run one at a time; consolidation is a
// read-modify-write over the whole memory set.
type ChatUseCase struct {
	repo      interfaces.Repository
	retrieval *retrieval.Service
	conv      *conversation.Service
	session   *SessionUseCase
}

// NewChatUseCase creates a new ChatUseCase instance
func NewChatUseCase(repo interfaces.Repository, retrievalSvc *retrieval.Service, convSvc *conversation.Service, sessionUC *SessionUseCase) *ChatUseCase {
	return &ChatUseCase{
		repo:      repo,
		retrieval: retrievalSvc,
		conv:      convSvc,
		session:   sessionUC,
	}
}

// TurnResult is the outcome of one chat turn
type TurnResult struct {
	Reply     model.ChatMessage
	Retrieved []model.RetrievedMemory
}

// SendMessage runs one chat turn. Nothing is persisted until generation
// succeeds, so a failed turn leaves stored state unchanged and the caller
// keeps the attempted message for retry.
func (uc *ChatUseCase) SendMessage(ctx context.Context, personaID types.PersonaID, sessionID types.SessionID, message string) (*TurnResult, error) {
	logger := logging.From(ctx)

	if strings.TrimSpace(message) == "" {
		return nil, goerr.Wrap(ErrEmptyMessage, "refusing to send")
	}

	persona, err := uc.repo.Persona().Get(ctx, personaID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrPersonaNotFound, "unknown persona", goerr.V("persona_id", personaID))
		}
		return nil, goerr.Wrap(err, "failed to load persona")
	}

	session, err := uc.repo.Session().Get(ctx, personaID, sessionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrSessionNotFound, "unknown session", goerr.V("session_id", sessionID))
		}
		return nil, goerr.Wrap(err, "failed to load session")
	}

	profile, err := uc.repo.Profile().Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load user profile")
	}

	allSessions, err := uc.repo.Session().List(ctx, personaID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions for retrieval")
	}

	// Retrieval is best-effort: it degrades to nothing, never fails the turn
	userMsg := model.UserMessage(message)
	retrieved := uc.retrieval.Retrieve(ctx,
		append(session.UserMessages(), userMsg),
		persona.Memories, allSessions, sessionID)
	if len(retrieved) > 0 {
		logger.Info("retrieved past-conversation context",
			"persona_id", personaID, "chats", len(retrieved))
	}

	now := time.Now().UTC()
	result, err := uc.conv.Chat(ctx, conversation.Input{
		Persona:   persona,
		Profile:   profile,
		Retrieved: retrieved,
		History:   session.Messages,
		Message:   message,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	// Generation succeeded; now consolidate memory and persist the turn
	if !result.Deltas.Empty() {
		persona.Memories = model.ApplyMemoryDeltas(persona.Memories, result.Deltas)
		logger.Info("consolidated persona memory",
			"persona_id", personaID,
			"added", len(result.Deltas.NewMemories),
			"removed", len(result.Deltas.RemovedMemories),
		)
	}
	persona.LastChatTime = now
	if err := uc.repo.Persona().Put(ctx, persona); err != nil {
		return nil, goerr.Wrap(err, "failed to persist persona after turn")
	}

	reply := model.AssistantMessage(result.Response)
	session.Append(userMsg, reply)
	if session.Title == "" {
		session.Title = deriveTitle(message)
	}
	if err := uc.repo.Session().Put(ctx, personaID, session); err != nil {
		return nil, goerr.Wrap(err, "failed to persist session after turn")
	}

	uc.maybeRefreshSummary(ctx, personaID, session)

	return &TurnResult{Reply: reply, Retrieved: retrieved}, nil
}

// maybeRefreshSummary regenerates the session summary in the background
// once the session has grown well past the last summarized baseline. The
// quick staleness patch (recent-topics supplement) covers the gap until
// then.
func (uc *ChatUseCase) maybeRefreshSummary(ctx context.Context, personaID types.PersonaID, session *model.ChatSession) {
	const resummarizeThreshold = 10

	if len(session.Messages) < session.SummarizedAt+resummarizeThreshold {
		return
	}

	sessionID := session.ID
	async.Dispatch(ctx, func(ctx context.Context) error {
		if _, err := uc.session.Summarize(ctx, personaID, sessionID); err != nil {
			return goerr.Wrap(err, "background summary refresh failed",
				goerr.V("session_id", sessionID))
		}
		return nil
	})
}

func deriveTitle(message string) string {
	title := strings.TrimSpace(message)
	if utf8.RuneCountInString(title) > maxTitleLen {
		title = strings.TrimSpace(string([]rune(title)[:maxTitleLen])) + "…"
	}
	if title == "" {
		title = "New chat"
	}
	return title
}
