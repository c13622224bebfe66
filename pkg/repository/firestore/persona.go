package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

// personaDoc is the Firestore document representation of model.Persona
type personaDoc struct {
	ID                string    `firestore:"ID"`
	Name              string    `firestore:"Name"`
	Relation          string    `firestore:"Relation"`
	Traits            string    `firestore:"Traits"`
	Backstory         string    `firestore:"Backstory"`
	Goals             string    `firestore:"Goals"`
	ResponseStyle     string    `firestore:"ResponseStyle"`
	ProfilePictureURL string    `firestore:"ProfilePictureURL"`
	Memories          []string  `firestore:"Memories"`
	LastChatTime      time.Time `firestore:"LastChatTime"`
	CreatedAt         time.Time `firestore:"CreatedAt"`
	UpdatedAt         time.Time `firestore:"UpdatedAt"`
}

func toPersonaDoc(p *model.Persona) *personaDoc {
	return &personaDoc{
		ID:                string(p.ID),
		Name:              p.Name,
		Relation:          p.Relation,
		Traits:            p.Traits,
		Backstory:         p.Backstory,
		Goals:             p.Goals,
		ResponseStyle:     p.ResponseStyle,
		ProfilePictureURL: p.ProfilePictureURL,
		Memories:          p.Memories,
		LastChatTime:      p.LastChatTime,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPersonaDoc(d *personaDoc) *model.Persona {
	return &model.Persona{
		ID:                types.PersonaID(d.ID),
		Name:              d.Name,
		Relation:          d.Relation,
		Traits:            d.Traits,
		Backstory:         d.Backstory,
		Goals:             d.Goals,
		ResponseStyle:     d.ResponseStyle,
		ProfilePictureURL: d.ProfilePictureURL,
		Memories:          d.Memories,
		LastChatTime:      d.LastChatTime,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type personaRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newPersonaRepository(client *firestore.Client) *personaRepository {
	return &personaRepository{client: client}
}

func (r *personaRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "personas")
}

func (r *personaRepository) Get(ctx context.Context, id types.PersonaID) (*model.Persona, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "persona not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get persona", goerr.V("id", id))
	}

	var d personaDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal persona", goerr.V("id", id))
	}
	return fromPersonaDoc(&d), nil
}

func (r *personaRepository) List(ctx context.Context) ([]*model.Persona, error) {
	iter := r.collection().OrderBy("CreatedAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*model.Persona
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list personas")
		}

		var d personaDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal persona", goerr.V("doc", doc.Ref.ID))
		}
		out = append(out, fromPersonaDoc(&d))
	}
	return out, nil
}

func (r *personaRepository) Put(ctx context.Context, persona *model.Persona) error {
	if persona.ID == "" {
		return goerr.New("persona ID is required")
	}

	stored := persona.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = time.Now().UTC()

	if _, err := r.collection().Doc(string(persona.ID)).Set(ctx, toPersonaDoc(stored)); err != nil {
		return goerr.Wrap(err, "failed to put persona", goerr.V("id", persona.ID))
	}
	return nil
}

func (r *personaRepository) Delete(ctx context.Context, id types.PersonaID) error {
	docRef := r.collection().Doc(string(id))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "persona not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get persona for delete", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete persona", goerr.V("id", id))
	}
	return nil
}
