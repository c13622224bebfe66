package config_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/companion-lab/mnemosyne/pkg/cli/config"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/repository/memory"
)

func TestKeys_Configure(t *testing.T) {
	ctx := context.Background()

	t.Run("flag keys come before stored keys", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.KeyPool().Put(ctx, model.KeyPool{Keys: []string{"stored-1", "stored-2"}})).Required()

		keys := config.NewKeysForTest("flag-1")
		merged, err := keys.Configure(ctx, repo)
		gt.NoError(t, err).Required()
		gt.Array(t, merged).Equal([]string{"flag-1", "stored-1", "stored-2"})
	})

	t.Run("duplicates and blanks are dropped", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.KeyPool().Put(ctx, model.KeyPool{Keys: []string{"shared", " "}})).Required()

		keys := config.NewKeysForTest("shared", "", "flag-only")
		merged, err := keys.Configure(ctx, repo)
		gt.NoError(t, err).Required()
		gt.Array(t, merged).Equal([]string{"shared", "flag-only"})
	})

	t.Run("empty pool everywhere yields an empty merge", func(t *testing.T) {
		keys := config.NewKeysForTest()
		merged, err := keys.Configure(ctx, memory.New())
		gt.NoError(t, err).Required()
		gt.Array(t, merged).Length(0)
	})
}

func TestLogger_Configure(t *testing.T) {
	t.Run("valid settings install a logger", func(t *testing.T) {
		logger := config.NewLoggerForTest("debug", "json", "stderr")
		closer, err := logger.Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("invalid level is rejected", func(t *testing.T) {
		logger := config.NewLoggerForTest("verbose", "console", "stdout")
		_, err := logger.Configure()
		gt.Error(t, err)
	})

	t.Run("invalid format is rejected", func(t *testing.T) {
		logger := config.NewLoggerForTest("info", "xml", "stdout")
		_, err := logger.Configure()
		gt.Error(t, err)
	})
}
