package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
)

type profileDoc struct {
	Name  string `firestore:"Name"`
	About string `firestore:"About"`
}

type profileRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newProfileRepository(client *firestore.Client) *profileRepository {
	return &profileRepository{client: client}
}

func (r *profileRepository) doc() *firestore.DocumentRef {
	return r.client.Collection(r.collectionPrefix + "settings").Doc("profile")
}

func (r *profileRepository) Get(ctx context.Context) (model.UserProfile, error) {
	doc, err := r.doc().Get(ctx)
	if err != nil {
		// Missing singleton reads back as the empty profile
		if status.Code(err) == codes.NotFound {
			return model.UserProfile{}, nil
		}
		return model.UserProfile{}, goerr.Wrap(err, "failed to get user profile")
	}

	var d profileDoc
	if err := doc.DataTo(&d); err != nil {
		return model.UserProfile{}, goerr.Wrap(err, "failed to unmarshal user profile")
	}
	return model.UserProfile{Name: d.Name, About: d.About}, nil
}

func (r *profileRepository) Put(ctx context.Context, profile model.UserProfile) error {
	if _, err := r.doc().Set(ctx, profileDoc{Name: profile.Name, About: profile.About}); err != nil {
		return goerr.Wrap(err, "failed to put user profile")
	}
	return nil
}

type keyPoolDoc struct {
	Keys []string `firestore:"Keys"`
}

type keyPoolRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newKeyPoolRepository(client *firestore.Client) *keyPoolRepository {
	return &keyPoolRepository{client: client}
}

func (r *keyPoolRepository) doc() *firestore.DocumentRef {
	return r.client.Collection(r.collectionPrefix + "settings").Doc("keypool")
}

func (r *keyPoolRepository) Get(ctx context.Context) (model.KeyPool, error) {
	doc, err := r.doc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.KeyPool{}, nil
		}
		return model.KeyPool{}, goerr.Wrap(err, "failed to get key pool")
	}

	var d keyPoolDoc
	if err := doc.DataTo(&d); err != nil {
		return model.KeyPool{}, goerr.Wrap(err, "failed to unmarshal key pool")
	}
	return model.KeyPool{Keys: d.Keys}, nil
}

func (r *keyPoolRepository) Put(ctx context.Context, pool model.KeyPool) error {
	if _, err := r.doc().Set(ctx, keyPoolDoc{Keys: pool.Keys}); err != nil {
		return goerr.Wrap(err, "failed to put key pool")
	}
	return nil
}
