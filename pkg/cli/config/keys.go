package config

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// Keys holds CLI flags for the API key pool. Keys from flags and
// environment are merged with the pool stored in the repository, flags
// first so an operator override rotates ahead of stored keys.
type Keys struct {
	keys []string
}

// Flags returns CLI flags for API key configuration
func (k *Keys) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "api-key",
			Usage:       "Gemini API key (repeatable, or comma separated via env)",
			Sources:     cli.EnvVars("MNEMOSYNE_API_KEYS"),
			Destination: &k.keys,
		},
	}
}

// Configure merges flag keys with the repository key pool. An empty pool
// in the repository is not an error; the merged result may still be empty
// and the caller decides whether that is fatal.
func (k *Keys) Configure(ctx context.Context, repo interfaces.Repository) ([]string, error) {
	pool, err := repo.KeyPool().Get(ctx)
	if err != nil {
		return nil, err
	}

	merged := make([]string, 0, len(k.keys)+len(pool.Keys))
	seen := map[string]bool{}
	for _, key := range append(append([]string{}, k.keys...), pool.Keys...) {
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, key)
	}

	logging.Default().Info("API key pool configured",
		"flag_keys", len(k.keys),
		"stored_keys", len(pool.Keys),
		"pool_size", len(merged),
	)
	return merged, nil
}
