package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
	"github.com/companion-lab/mnemosyne/pkg/repository/memory"
	"github.com/companion-lab/mnemosyne/pkg/service/conversation"
	"github.com/companion-lab/mnemosyne/pkg/service/gateway"
	"github.com/companion-lab/mnemosyne/pkg/service/retrieval"
	"github.com/companion-lab/mnemosyne/pkg/usecase"
)

// mockGateway answers structured-output calls by schema title so one mock
// can serve the retrieval decision, ranking, and chat generation stages.
type mockGateway struct {
	handlers map[string]func(in gateway.Input) (any, error)
	textFn   func(in gateway.Input) (string, error)
	calls    []string
}

func (m *mockGateway) GenerateJSON(ctx context.Context, in gateway.Input, out any) error {
	title := ""
	if in.Schema != nil {
		title = in.Schema.Title
	}
	m.calls = append(m.calls, title)

	fn, ok := m.handlers[title]
	if !ok {
		return errors.New("unexpected generation call: " + title)
	}
	v, err := fn(in)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (m *mockGateway) GenerateText(ctx context.Context, in gateway.Input) (string, error) {
	if m.textFn == nil {
		return "", errors.New("unexpected GenerateText call")
	}
	return m.textFn(in)
}

func noRetrievalHandler(in gateway.Input) (any, error) {
	return map[string]any{"needs_retrieval": false, "search_queries": []string{}}, nil
}

func newTestUseCases(t *testing.T, gw *mockGateway) (*usecase.UseCases, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	uc := usecase.New(repo, retrieval.New(gw), conversation.New(gw))
	return uc, repo
}

func seedPersona(t *testing.T, uc *usecase.UseCases) *model.Persona {
	t.Helper()
	ctx := context.Background()

	persona := model.NewPersona("Aria")
	persona.Relation = "close friend"
	persona.Memories = []string{"2024-10-01: User has a pet"}

	stored, err := uc.Persona.Put(ctx, persona)
	gt.NoError(t, err).Required()
	return stored
}

func TestChatUseCase_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("successful turn persists reply, memory, and title", func(t *testing.T) {
		gw := &mockGateway{handlers: map[string]func(in gateway.Input) (any, error){
			"MemoryRetrievalDecision": noRetrievalHandler,
			"PersonaChatTurn": func(in gateway.Input) (any, error) {
				return map[string]any{
					"response":         "A cat named Milo, how lovely!",
					"new_memories":     []string{"2024-11-02: User has a pet cat named Milo"},
					"removed_memories": []string{"2024-10-01: User has a pet"},
				}, nil
			},
		}}
		uc, repo := newTestUseCases(t, gw)
		persona := seedPersona(t, uc)

		session, err := uc.Session.Create(ctx, persona.ID, "")
		gt.NoError(t, err).Required()

		result, err := uc.Chat.SendMessage(ctx, persona.ID, session.ID, "my pet is a cat named Milo")
		gt.NoError(t, err).Required()
		gt.Value(t, result.Reply.Content).Equal("A cat named Milo, how lovely!")
		gt.Value(t, result.Reply.Role).Equal(types.RoleAssistant)

		stored, err := repo.Session().Get(ctx, persona.ID, session.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, stored.Messages).Length(2)
		gt.Value(t, stored.Messages[0].Role).Equal(types.RoleUser)
		gt.Value(t, stored.Messages[1].Role).Equal(types.RoleAssistant)
		gt.Value(t, stored.Title).Equal("my pet is a cat named Milo")

		updated, err := repo.Persona().Get(ctx, persona.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, updated.Memories).Equal([]string{"2024-11-02: User has a pet cat named Milo"})
		gt.Bool(t, updated.LastChatTime.IsZero()).False()
	})

	t.Run("generation failure leaves stored state unchanged", func(t *testing.T) {
		gw := &mockGateway{handlers: map[string]func(in gateway.Input) (any, error){
			"MemoryRetrievalDecision": noRetrievalHandler,
			"PersonaChatTurn": func(in gateway.Input) (any, error) {
				return nil, errors.New("model unavailable")
			},
		}}
		uc, repo := newTestUseCases(t, gw)
		persona := seedPersona(t, uc)

		session, err := uc.Session.Create(ctx, persona.ID, "")
		gt.NoError(t, err).Required()

		_, err = uc.Chat.SendMessage(ctx, persona.ID, session.ID, "hello")
		gt.Error(t, err)

		stored, err := repo.Session().Get(ctx, persona.ID, session.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, stored.Messages).Length(0)

		unchanged, err := repo.Persona().Get(ctx, persona.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, unchanged.Memories).Equal([]string{"2024-10-01: User has a pet"})
		gt.Bool(t, unchanged.LastChatTime.IsZero()).True()
	})

	t.Run("retrieval failure does not block the turn", func(t *testing.T) {
		gw := &mockGateway{handlers: map[string]func(in gateway.Input) (any, error){
			"MemoryRetrievalDecision": func(in gateway.Input) (any, error) {
				return nil, errors.New("decision model down")
			},
			"PersonaChatTurn": func(in gateway.Input) (any, error) {
				return map[string]any{"response": "hello!"}, nil
			},
		}}
		uc, repo := newTestUseCases(t, gw)
		persona := seedPersona(t, uc)

		session, err := uc.Session.Create(ctx, persona.ID, "")
		gt.NoError(t, err).Required()

		// first build some history in another session so candidates exist
		other, err := uc.Session.Create(ctx, persona.ID, "earlier chat")
		gt.NoError(t, err).Required()
		other.Append(model.UserMessage("old topic"))
		gt.NoError(t, repo.Session().Put(ctx, persona.ID, other))

		result, err := uc.Chat.SendMessage(ctx, persona.ID, session.ID, "remember that old topic?")
		gt.NoError(t, err).Required()
		gt.Value(t, result.Reply.Content).Equal("hello!")
		gt.Array(t, result.Retrieved).Length(0)
	})

	t.Run("relevant past chats flow into the generation prompt", func(t *testing.T) {
		var chatPrompt string
		gw := &mockGateway{handlers: map[string]func(in gateway.Input) (any, error){
			"MemoryRetrievalDecision": func(in gateway.Input) (any, error) {
				return map[string]any{
					"needs_retrieval": true,
					"search_queries":  []string{"job interview"},
				}, nil
			},
			"PersonaChatTurn": func(in gateway.Input) (any, error) {
				chatPrompt = in.SystemPrompt
				return map[string]any{"response": "you nailed it, right?"}, nil
			},
		}}
		uc, repo := newTestUseCases(t, gw)
		persona := seedPersona(t, uc)

		past, err := uc.Session.Create(ctx, persona.ID, "Interview prep")
		gt.NoError(t, err).Required()
		past.Append(
			model.UserMessage("my job interview is friday"),
			model.AssistantMessage("you will do great"),
		)
		gt.NoError(t, repo.Session().Put(ctx, persona.ID, past))

		gw.handlers["ChatRelevanceRanking"] = func(in gateway.Input) (any, error) {
			return map[string]any{"chat_ids": []string{past.ID.String()}}, nil
		}

		session, err := uc.Session.Create(ctx, persona.ID, "")
		gt.NoError(t, err).Required()

		result, err := uc.Chat.SendMessage(ctx, persona.ID, session.ID, "remember my job interview?")
		gt.NoError(t, err).Required()
		gt.Array(t, result.Retrieved).Length(1)
		gt.Value(t, result.Retrieved[0].ChatID).Equal(past.ID)
		gt.Bool(t, len(chatPrompt) > 0).True()
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		uc, _ := newTestUseCases(t, &mockGateway{})
		persona := seedPersona(t, uc)

		session, err := uc.Session.Create(ctx, persona.ID, "")
		gt.NoError(t, err).Required()

		_, err = uc.Chat.SendMessage(ctx, persona.ID, session.ID, "   ")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrEmptyMessage)).True()
	})

	t.Run("unknown persona and session map to sentinels", func(t *testing.T) {
		uc, _ := newTestUseCases(t, &mockGateway{})

		_, err := uc.Chat.SendMessage(ctx, "nope", "nope", "hi")
		gt.Bool(t, errors.Is(err, usecase.ErrPersonaNotFound)).True()

		persona := seedPersona(t, uc)
		_, err = uc.Chat.SendMessage(ctx, persona.ID, "nope", "hi")
		gt.Bool(t, errors.Is(err, usecase.ErrSessionNotFound)).True()
	})
}

func TestDeriveTitle(t *testing.T) {
	t.Run("long first messages are truncated", func(t *testing.T) {
		gw := &mockGateway{handlers: map[string]func(in gateway.Input) (any, error){
			"MemoryRetrievalDecision": noRetrievalHandler,
			"PersonaChatTurn": func(in gateway.Input) (any, error) {
				return map[string]any{"response": "ok"}, nil
			},
		}}
		uc, repo := newTestUseCases(t, gw)
		persona := seedPersona(t, uc)

		session, err := uc.Session.Create(context.Background(), persona.ID, "")
		gt.NoError(t, err).Required()

		long := "this is a very long opening message that should be cut down to a reasonable session title length"
		_, err = uc.Chat.SendMessage(context.Background(), persona.ID, session.ID, long)
		gt.NoError(t, err).Required()

		stored, err := repo.Session().Get(context.Background(), persona.ID, session.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, len(stored.Title) < len(long)).True()
		gt.Bool(t, len([]rune(stored.Title)) <= 61).True()
	})

	t.Run("multibyte openings truncate on rune boundaries", func(t *testing.T) {
		gw := &mockGateway{handlers: map[string]func(in gateway.Input) (any, error){
			"MemoryRetrievalDecision": noRetrievalHandler,
			"PersonaChatTurn": func(in gateway.Input) (any, error) {
				return map[string]any{"response": "ok"}, nil
			},
		}}
		uc, repo := newTestUseCases(t, gw)
		persona := seedPersona(t, uc)

		session, err := uc.Session.Create(context.Background(), persona.ID, "")
		gt.NoError(t, err).Required()

		long := strings.Repeat("日", 80)
		_, err = uc.Chat.SendMessage(context.Background(), persona.ID, session.ID, long)
		gt.NoError(t, err).Required()

		stored, err := repo.Session().Get(context.Background(), persona.ID, session.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, utf8.ValidString(stored.Title)).True()
		gt.Value(t, stored.Title).Equal(strings.Repeat("日", 60) + "…")
	})
}
