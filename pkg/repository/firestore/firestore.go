package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
)

// Collection layout:
//
//	personas/{personaID}                    persona document
//	personas/{personaID}/chats/{sessionID}  chat session document
//	settings/profile                        user profile singleton
//	settings/keypool                        API key pool singleton
type Firestore struct {
	client  *firestore.Client
	persona *personaRepository
	session *sessionRepository
	profile *profileRepository
	keyPool *keyPoolRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, used to isolate test runs
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.persona.collectionPrefix = prefix
		f.session.collectionPrefix = prefix
		f.profile.collectionPrefix = prefix
		f.keyPool.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}

	f := &Firestore{
		client:  client,
		persona: newPersonaRepository(client),
		session: newSessionRepository(client),
		profile: newProfileRepository(client),
		keyPool: newKeyPoolRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Persona() interfaces.PersonaRepository {
	return f.persona
}

func (f *Firestore) Session() interfaces.SessionRepository {
	return f.session
}

func (f *Firestore) Profile() interfaces.ProfileRepository {
	return f.profile
}

func (f *Firestore) KeyPool() interfaces.KeyPoolRepository {
	return f.keyPool
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
