package gateway

import (
	"context"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// ErrNoCredentials is returned when the key pool is empty after filtering.
// This is a configuration error: it is never retried and surfaces verbatim.
var ErrNoCredentials = goerr.New("no API key configured")

// Rotator spreads model calls across a pool of API keys. The round-robin
// cursor persists across calls so consecutive calls start from successive
// keys instead of always hammering index 0. Key choice has no correctness
// impact, only load distribution, so concurrent interleaving of the cursor
// is acceptable.
type Rotator struct {
	keys   []string
	cursor atomic.Uint64
}

// NewRotator builds a rotator over the given key pool. Empty keys are
// filtered out; an empty resulting pool is a configuration error.
func NewRotator(keys []string) (*Rotator, error) {
	usable := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			usable = append(usable, k)
		}
	}
	if len(usable) == 0 {
		return nil, goerr.Wrap(ErrNoCredentials, "API key pool is empty")
	}

	return &Rotator{keys: usable}, nil
}

// Keys returns the usable key pool
func (r *Rotator) Keys() []string {
	return r.keys
}

// Do runs op with one key after another until it succeeds, starting at the
// rotating cursor. Each key is attempted at most once per call; there is no
// backoff. After the pool is exhausted the last failure is surfaced wrapped
// with context.
func (r *Rotator) Do(ctx context.Context, op func(ctx context.Context, apiKey string) error) error {
	logger := logging.From(ctx)
	start := r.cursor.Add(1) - 1

	var lastErr error
	for i := range r.keys {
		idx := int((start + uint64(i)) % uint64(len(r.keys)))

		if err := op(ctx, r.keys[idx]); err != nil {
			lastErr = err
			logger.Warn("model call failed, rotating to next API key",
				"key_index", idx,
				"attempt", i+1,
				"keys", len(r.keys),
				"error", err.Error(),
			)
			continue
		}
		return nil
	}

	return goerr.Wrap(lastErr, "all API keys exhausted", goerr.V("keys", len(r.keys)))
}
