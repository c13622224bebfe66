package memory

import (
	"context"
	"sync"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
)

// profileRepository stores the singleton user profile. Absence reads back
// as the empty profile.
type profileRepository struct {
	mu      sync.RWMutex
	profile model.UserProfile
}

func newProfileRepository() *profileRepository {
	return &profileRepository{}
}

func (r *profileRepository) Get(ctx context.Context) (model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profile, nil
}

func (r *profileRepository) Put(ctx context.Context, profile model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile = profile
	return nil
}

// keyPoolRepository stores the singleton API key pool. Absence reads back
// as the empty pool.
type keyPoolRepository struct {
	mu   sync.RWMutex
	pool model.KeyPool
}

func newKeyPoolRepository() *keyPoolRepository {
	return &keyPoolRepository{}
}

func (r *keyPoolRepository) Get(ctx context.Context) (model.KeyPool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := model.KeyPool{Keys: make([]string, len(r.pool.Keys))}
	copy(out.Keys, r.pool.Keys)
	return out, nil
}

func (r *keyPoolRepository) Put(ctx context.Context, pool model.KeyPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pool = model.KeyPool{Keys: make([]string, len(pool.Keys))}
	copy(r.pool.Keys, pool.Keys)
	return nil
}
