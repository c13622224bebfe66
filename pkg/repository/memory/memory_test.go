package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
	"github.com/companion-lab/mnemosyne/pkg/repository/memory"
)

func TestPersonaRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Put then Get round-trips and clones", func(t *testing.T) {
		repo := memory.New()

		persona := model.NewPersona("Aria")
		persona.Memories = []string{"fact one"}
		gt.NoError(t, repo.Persona().Put(ctx, persona)).Required()

		// mutate the original after Put; the stored copy must not change
		persona.Memories[0] = "mutated"

		got, err := repo.Persona().Get(ctx, persona.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Aria")
		gt.Array(t, got.Memories).Equal([]string{"fact one"})
		gt.Bool(t, got.UpdatedAt.IsZero()).False()

		// mutating the returned copy must not leak back
		got.Memories[0] = "also mutated"
		again, err := repo.Persona().Get(ctx, persona.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, again.Memories).Equal([]string{"fact one"})
	})

	t.Run("Get of unknown persona wraps ErrNotFound", func(t *testing.T) {
		repo := memory.New()
		_, err := repo.Persona().Get(ctx, "missing")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})

	t.Run("List is sorted by creation time ascending", func(t *testing.T) {
		repo := memory.New()

		base := time.Now().UTC()
		for i := 2; i >= 0; i-- {
			p := model.NewPersona(fmt.Sprintf("p%d", i))
			p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			gt.NoError(t, repo.Persona().Put(ctx, p)).Required()
		}

		got, err := repo.Persona().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(3)
		gt.Value(t, got[0].Name).Equal("p0")
		gt.Value(t, got[2].Name).Equal("p2")
	})

	t.Run("Put without ID is rejected", func(t *testing.T) {
		repo := memory.New()
		err := repo.Persona().Put(ctx, &model.Persona{Name: "no-id"})
		gt.Error(t, err)
	})

	t.Run("Delete removes and reports missing", func(t *testing.T) {
		repo := memory.New()

		persona := model.NewPersona("Aria")
		gt.NoError(t, repo.Persona().Put(ctx, persona)).Required()
		gt.NoError(t, repo.Persona().Delete(ctx, persona.ID))

		err := repo.Persona().Delete(ctx, persona.ID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	personaID := types.NewPersonaID()

	t.Run("Put then Get round-trips messages", func(t *testing.T) {
		repo := memory.New()

		session := model.NewChatSession("first chat")
		session.Append(model.UserMessage("hi"), model.AssistantMessage("hello"))
		gt.NoError(t, repo.Session().Put(ctx, personaID, session)).Required()

		got, err := repo.Session().Get(ctx, personaID, session.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("first chat")
		gt.Array(t, got.Messages).Length(2)
	})

	t.Run("sessions are scoped to their persona", func(t *testing.T) {
		repo := memory.New()

		session := model.NewChatSession("mine")
		gt.NoError(t, repo.Session().Put(ctx, personaID, session)).Required()

		_, err := repo.Session().Get(ctx, types.NewPersonaID(), session.ID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})

	t.Run("List is sorted by last activity descending", func(t *testing.T) {
		repo := memory.New()

		base := time.Now().UTC()
		for i := 0; i < 3; i++ {
			s := model.NewChatSession(fmt.Sprintf("s%d", i))
			s.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			gt.NoError(t, repo.Session().Put(ctx, personaID, s)).Required()
		}

		got, err := repo.Session().List(ctx, personaID)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(3)
		gt.Value(t, got[0].Title).Equal("s2")
		gt.Value(t, got[2].Title).Equal("s0")
	})

	t.Run("Clear removes all sessions of one persona", func(t *testing.T) {
		repo := memory.New()
		other := types.NewPersonaID()

		gt.NoError(t, repo.Session().Put(ctx, personaID, model.NewChatSession("a"))).Required()
		gt.NoError(t, repo.Session().Put(ctx, personaID, model.NewChatSession("b"))).Required()
		gt.NoError(t, repo.Session().Put(ctx, other, model.NewChatSession("keep"))).Required()

		gt.NoError(t, repo.Session().Clear(ctx, personaID))

		mine, err := repo.Session().List(ctx, personaID)
		gt.NoError(t, err).Required()
		gt.Array(t, mine).Length(0)

		kept, err := repo.Session().List(ctx, other)
		gt.NoError(t, err).Required()
		gt.Array(t, kept).Length(1)
	})

	t.Run("Delete reports missing sessions", func(t *testing.T) {
		repo := memory.New()
		err := repo.Session().Delete(ctx, personaID, "missing")
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})
}

func TestSettingsRepositories(t *testing.T) {
	ctx := context.Background()

	t.Run("absent profile reads back empty without error", func(t *testing.T) {
		repo := memory.New()

		profile, err := repo.Profile().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Bool(t, profile.Empty()).True()
	})

	t.Run("profile round-trips", func(t *testing.T) {
		repo := memory.New()

		gt.NoError(t, repo.Profile().Put(ctx, model.UserProfile{Name: "Sam", About: "nurse"})).Required()

		got, err := repo.Profile().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Sam")
		gt.Value(t, got.About).Equal("nurse")
	})

	t.Run("absent key pool reads back empty without error", func(t *testing.T) {
		repo := memory.New()

		pool, err := repo.KeyPool().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, pool.Keys).Length(0)
	})

	t.Run("key pool round-trips and copies", func(t *testing.T) {
		repo := memory.New()

		keys := []string{"key-a", "key-b"}
		gt.NoError(t, repo.KeyPool().Put(ctx, model.KeyPool{Keys: keys})).Required()
		keys[0] = "mutated"

		got, err := repo.KeyPool().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, got.Keys).Equal([]string{"key-a", "key-b"})
	})
}
