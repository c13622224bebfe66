package firestore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/repository/firestore"
)

func newTestRepo(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	prefix := fmt.Sprintf("test-%d-", time.Now().UnixNano())
	repo, err := firestore.New(context.Background(), projectID, databaseID,
		firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()

	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Logf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func TestFirestorePersonaRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Put then Get round-trips", func(t *testing.T) {
		persona := model.NewPersona("Aria")
		persona.Relation = "close friend"
		persona.Memories = []string{"2024-10-01: User has a pet"}
		gt.NoError(t, repo.Persona().Put(ctx, persona)).Required()

		got, err := repo.Persona().Get(ctx, persona.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Aria")
		gt.Value(t, got.Relation).Equal("close friend")
		gt.Array(t, got.Memories).Equal([]string{"2024-10-01: User has a pet"})
	})

	t.Run("Get of unknown persona wraps ErrNotFound", func(t *testing.T) {
		_, err := repo.Persona().Get(ctx, "missing")
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})
}

func TestFirestoreSessionRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	persona := model.NewPersona("Aria")
	gt.NoError(t, repo.Persona().Put(context.Background(), persona)).Required()

	t.Run("Put then Get round-trips messages", func(t *testing.T) {
		session := model.NewChatSession("first chat")
		session.Append(model.UserMessage("hi"), model.AssistantMessage("hello"))
		session.Summary = "greeting"
		session.SummarizedAt = 2
		gt.NoError(t, repo.Session().Put(ctx, persona.ID, session)).Required()

		got, err := repo.Session().Get(ctx, persona.ID, session.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("first chat")
		gt.Array(t, got.Messages).Length(2)
		gt.Value(t, got.Messages[0].Content).Equal("hi")
		gt.Value(t, got.Summary).Equal("greeting")
		gt.Value(t, got.SummarizedAt).Equal(2)
	})

	t.Run("List orders by last activity descending", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			s := model.NewChatSession(fmt.Sprintf("s%d", i))
			s.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
			gt.NoError(t, repo.Session().Put(ctx, persona.ID, s)).Required()
		}

		got, err := repo.Session().List(ctx, persona.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, len(got) >= 3).True()
		for i := 1; i < len(got); i++ {
			gt.Bool(t, !got[i-1].LastActivity().Before(got[i].LastActivity())).True()
		}
	})

	t.Run("Clear removes every session of the persona", func(t *testing.T) {
		gt.NoError(t, repo.Session().Clear(ctx, persona.ID)).Required()

		got, err := repo.Session().List(ctx, persona.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(0)
	})
}

func TestFirestoreSettingsRepositories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("absent singletons read back empty", func(t *testing.T) {
		profile, err := repo.Profile().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Bool(t, profile.Empty()).True()

		pool, err := repo.KeyPool().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, pool.Keys).Length(0)
	})

	t.Run("profile and key pool round-trip", func(t *testing.T) {
		gt.NoError(t, repo.Profile().Put(ctx, model.UserProfile{Name: "Sam"})).Required()
		profile, err := repo.Profile().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, profile.Name).Equal("Sam")

		gt.NoError(t, repo.KeyPool().Put(ctx, model.KeyPool{Keys: []string{"key-a"}})).Required()
		pool, err := repo.KeyPool().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, pool.Keys).Equal([]string{"key-a"})
	})
}
