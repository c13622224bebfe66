package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/companion-lab/mnemosyne/pkg/cli/config"
	"github.com/companion-lab/mnemosyne/pkg/repository/memory"
)

const seedTOML = `
[[persona]]
name = "Aria"
relation = "close friend"
traits = "warm, curious"
backstory = "Grew up by the sea."
response_style = "casual, playful"
memories = ["2024-10-01: User has a pet"]

[[persona]]
name = "Victor"
relation = "mentor"
response_style = "formal, precise"
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personas.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("no path loads nothing", func(t *testing.T) {
		var seed config.Seed
		personas, err := seed.Load()
		gt.NoError(t, err).Required()
		gt.Array(t, personas).Length(0)
	})

	t.Run("Apply creates defined personas", func(t *testing.T) {
		seed := config.NewSeedForTest(writeSeedFile(t, seedTOML))
		repo := memory.New()

		gt.NoError(t, seed.Apply(ctx, repo)).Required()

		personas, err := repo.Persona().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, personas).Length(2)

		byName := map[string]bool{}
		for _, p := range personas {
			byName[p.Name] = true
			gt.Bool(t, p.ID == "").False()
		}
		gt.Bool(t, byName["Aria"] && byName["Victor"]).True()
	})

	t.Run("Apply is idempotent by name", func(t *testing.T) {
		seed := config.NewSeedForTest(writeSeedFile(t, seedTOML))
		repo := memory.New()

		gt.NoError(t, seed.Apply(ctx, repo)).Required()
		gt.NoError(t, seed.Apply(ctx, repo)).Required()

		personas, err := repo.Persona().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, personas).Length(2)
	})

	t.Run("entries without a name are rejected", func(t *testing.T) {
		seed := config.NewSeedForTest(writeSeedFile(t, "[[persona]]\nrelation = \"friend\"\n"))
		_, err := seed.Load()
		gt.Error(t, err)
	})

	t.Run("malformed TOML is rejected", func(t *testing.T) {
		seed := config.NewSeedForTest(writeSeedFile(t, "[[persona\nname ="))
		_, err := seed.Load()
		gt.Error(t, err)
	})
}
