package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"

	"github.com/companion-lab/mnemosyne/pkg/service/gateway"
)

// Gemini holds configuration for the Gemini model client
type Gemini struct {
	projectID      string
	location       string
	model          string
	thinkingBudget int
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       "gemini-2.0-flash",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_MODEL"),
			Destination: &g.model,
		},
		&cli.IntFlag{
			Name:        "gemini-thinking-budget",
			Usage:       "Reasoning-token cap for thinking models (0 uses the provider default)",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_THINKING_BUDGET"),
			Destination: &g.thinkingBudget,
		},
	}
}

// ThinkingBudget returns the configured reasoning-token cap
func (g *Gemini) ThinkingBudget() int32 {
	return int32(g.thinkingBudget)
}

// LogAttrs returns log attributes for the Gemini configuration
func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
		slog.String("model", g.model),
	}
}

// ClientFactory returns a factory that binds one pool key per client.
// The gateway calls it per attempt so rotation picks up a fresh key, and
// passes the tuning config so an unsupported-field retry can rebuild the
// client without the rejected knob.
func (g *Gemini) ClientFactory() gateway.ClientFactory {
	return func(ctx context.Context, apiKey string, cfg gateway.ClientConfig) (gollem.LLMClient, error) {
		opts := []gemini.Option{
			gemini.WithModel(g.model),
			gemini.WithGoogleCloudOptions(option.WithAPIKey(apiKey)),
		}
		if cfg.ThinkingBudget > 0 {
			opts = append(opts, gemini.WithThinkingBudget(cfg.ThinkingBudget))
		}

		client, err := gemini.New(ctx, g.projectID, g.location, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil
	}
}
