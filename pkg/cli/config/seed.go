package config

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// Seed holds CLI flags for seeding personas from a TOML definition file
type Seed struct {
	path string
}

// Flags returns CLI flags for persona seeding
func (s *Seed) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "persona-seed",
			Usage:       "Path to a TOML file with persona definitions to create at startup",
			Sources:     cli.EnvVars("MNEMOSYNE_PERSONA_SEED"),
			Destination: &s.path,
		},
	}
}

type seedFile struct {
	Personas []seedPersona `toml:"persona"`
}

type seedPersona struct {
	Name              string   `toml:"name"`
	Relation          string   `toml:"relation"`
	Traits            string   `toml:"traits"`
	Backstory         string   `toml:"backstory"`
	Goals             string   `toml:"goals"`
	ResponseStyle     string   `toml:"response_style"`
	ProfilePictureURL string   `toml:"profile_picture_url"`
	Memories          []string `toml:"memories"`
}

// Load parses the seed file. A missing flag yields no personas.
func (s *Seed) Load() ([]*model.Persona, error) {
	if s.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read persona seed file", goerr.V("path", s.path))
	}

	var file seedFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse persona seed file", goerr.V("path", s.path))
	}

	personas := make([]*model.Persona, 0, len(file.Personas))
	for i, p := range file.Personas {
		if p.Name == "" {
			return nil, goerr.New("persona seed entry missing name", goerr.V("index", i))
		}
		persona := model.NewPersona(p.Name)
		persona.Relation = p.Relation
		persona.Traits = p.Traits
		persona.Backstory = p.Backstory
		persona.Goals = p.Goals
		persona.ResponseStyle = p.ResponseStyle
		persona.ProfilePictureURL = p.ProfilePictureURL
		persona.Memories = p.Memories
		personas = append(personas, persona)
	}
	return personas, nil
}

// Apply creates seeded personas that do not exist yet, matched by name.
// Existing personas are left untouched so seeding is safe to rerun.
func (s *Seed) Apply(ctx context.Context, repo interfaces.Repository) error {
	personas, err := s.Load()
	if err != nil {
		return err
	}
	if len(personas) == 0 {
		return nil
	}

	existing, err := repo.Persona().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list personas for seeding")
	}
	byName := map[string]bool{}
	for _, p := range existing {
		byName[p.Name] = true
	}

	created := 0
	for _, persona := range personas {
		if byName[persona.Name] {
			continue
		}
		if err := persona.Validate(); err != nil {
			return goerr.Wrap(err, "invalid seed persona", goerr.V("name", persona.Name))
		}
		if err := repo.Persona().Put(ctx, persona); err != nil {
			return goerr.Wrap(err, "failed to store seed persona", goerr.V("name", persona.Name))
		}
		created++
	}

	logging.Default().Info("Persona seed applied",
		"path", s.path,
		"defined", len(personas),
		"created", created,
	)
	return nil
}
