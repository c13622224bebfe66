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

type messageDoc struct {
	Role    string `firestore:"Role"`
	Content string `firestore:"Content"`
}

type sessionDoc struct {
	ID           string       `firestore:"ID"`
	Title        string       `firestore:"Title"`
	Messages     []messageDoc `firestore:"Messages"`
	CreatedAt    time.Time    `firestore:"CreatedAt"`
	UpdatedAt    time.Time    `firestore:"UpdatedAt"`
	Summary      string       `firestore:"Summary"`
	SummarizedAt int          `firestore:"SummarizedAt"`
	LastActivity time.Time    `firestore:"LastActivity"` // UpdatedAt ?? CreatedAt, kept queryable
}

func toSessionDoc(s *model.ChatSession) *sessionDoc {
	doc := &sessionDoc{
		ID:           string(s.ID),
		Title:        s.Title,
		Messages:     make([]messageDoc, 0, len(s.Messages)),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Summary:      s.Summary,
		SummarizedAt: s.SummarizedAt,
		LastActivity: s.LastActivity(),
	}
	for _, m := range s.Messages {
		doc.Messages = append(doc.Messages, messageDoc{Role: string(m.Role), Content: m.Content})
	}
	return doc
}

func fromSessionDoc(d *sessionDoc) *model.ChatSession {
	s := &model.ChatSession{
		ID:           types.SessionID(d.ID),
		Title:        d.Title,
		Messages:     make([]model.ChatMessage, 0, len(d.Messages)),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Summary:      d.Summary,
		SummarizedAt: d.SummarizedAt,
	}
	for _, m := range d.Messages {
		s.Messages = append(s.Messages, model.ChatMessage{Role: types.Role(m.Role), Content: m.Content})
	}
	return s
}

type sessionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newSessionRepository(client *firestore.Client) *sessionRepository {
	return &sessionRepository{client: client}
}

func (r *sessionRepository) collection(personaID types.PersonaID) *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "personas").Doc(string(personaID)).Collection("chats")
}

func (r *sessionRepository) Get(ctx context.Context, personaID types.PersonaID, id types.SessionID) (*model.ChatSession, error) {
	doc, err := r.collection(personaID).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "session not found",
				goerr.V("persona_id", personaID), goerr.V("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session",
			goerr.V("persona_id", personaID), goerr.V("session_id", id))
	}

	var d sessionDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V("session_id", id))
	}
	return fromSessionDoc(&d), nil
}

func (r *sessionRepository) List(ctx context.Context, personaID types.PersonaID) ([]*model.ChatSession, error) {
	iter := r.collection(personaID).OrderBy("LastActivity", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []*model.ChatSession
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list sessions", goerr.V("persona_id", personaID))
		}

		var d sessionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V("doc", doc.Ref.ID))
		}
		out = append(out, fromSessionDoc(&d))
	}
	return out, nil
}

func (r *sessionRepository) Put(ctx context.Context, personaID types.PersonaID, session *model.ChatSession) error {
	if session.ID == "" {
		return goerr.New("session ID is required")
	}

	if _, err := r.collection(personaID).Doc(string(session.ID)).Set(ctx, toSessionDoc(session)); err != nil {
		return goerr.Wrap(err, "failed to put session",
			goerr.V("persona_id", personaID), goerr.V("session_id", session.ID))
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, personaID types.PersonaID, id types.SessionID) error {
	docRef := r.collection(personaID).Doc(string(id))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "session not found",
				goerr.V("persona_id", personaID), goerr.V("session_id", id))
		}
		return goerr.Wrap(err, "failed to get session for delete", goerr.V("session_id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V("session_id", id))
	}
	return nil
}

func (r *sessionRepository) Clear(ctx context.Context, personaID types.PersonaID) error {
	iter := r.collection(personaID).Documents(ctx)
	defer iter.Stop()

	batch := r.client.BulkWriter(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate sessions for clear", goerr.V("persona_id", personaID))
		}
		if _, err := batch.Delete(doc.Ref); err != nil {
			return goerr.Wrap(err, "failed to enqueue session delete", goerr.V("doc", doc.Ref.ID))
		}
	}
	batch.End()
	return nil
}
